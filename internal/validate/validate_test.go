package validate

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmptyErrorsIsNil(t *testing.T) {
	require.NoError(t, Errors{}.Err())
}

func TestRequiredAndLengthMessages(t *testing.T) {
	errs := Errors{}
	errs.Required("name", "   ")
	errs.MaxLen("email", strings.Repeat("a", 256), 255)
	errs.MinLen("password", "12345", 6)

	require.Equal(t, []string{"The name field is required."}, errs["name"])
	require.Equal(t, []string{"The email may not be greater than 255 characters."}, errs["email"])
	require.Equal(t, []string{"The password must be at least 6 characters."}, errs["password"])

	var target Errors
	require.True(t, errors.As(errs.Err(), &target))
	require.Len(t, target, 3)
}

func TestEmail(t *testing.T) {
	for _, good := range []string{"a@x.com", "first.last@example.org"} {
		errs := Errors{}
		errs.Email("email", good)
		require.False(t, errs.Has("email"), good)
	}
	for _, bad := range []string{"nope", "Ann <a@x.com>", "a@"} {
		errs := Errors{}
		errs.Email("email", bad)
		require.True(t, errs.Has("email"), bad)
	}
}

func TestDate(t *testing.T) {
	errs := Errors{}
	errs.Date("date", "")
	errs.Date("date", "2024-02-29")
	require.False(t, errs.Has("date"))

	errs.Date("date", "2023-02-29")
	require.Equal(t, []string{"The date is not a valid date."}, errs["date"])
}

func TestPositiveIntUsesWords(t *testing.T) {
	errs := Errors{}
	require.False(t, errs.PositiveInt("albumId", 0))
	require.Equal(t, []string{"The album id must be a positive integer."}, errs["albumId"])
}

func TestMerge(t *testing.T) {
	a := Errors{"image": {"one"}}
	a.Merge(Errors{"image": {"two"}, "name": {"three"}})
	require.Equal(t, []string{"one", "two"}, a["image"])
	require.Equal(t, []string{"three"}, a["name"])
}
