package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"unicode"
	"unicode/utf8"

	"github.com/google/go-github/v39/github"
)

// Describe renders err as a message fit for the user. The controllers keep
// only this text, never the error value.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var (
		rateErr  *github.RateLimitError
		abuseErr *github.AbuseRateLimitError
		respErr  *github.ErrorResponse
		netErr   net.Error
	)

	switch {
	case errors.Is(err, context.Canceled):
		return "The request was cancelled."
	case errors.Is(err, context.DeadlineExceeded):
		return "The request timed out."
	case errors.Is(err, ErrNoFiles):
		return "Add at least one file before creating a gist."
	case errors.Is(err, ErrNotFound):
		return "The gist could not be found."
	case errors.As(err, &rateErr):
		return fmt.Sprintf("API rate limit exceeded, resets at %s.", rateErr.Rate.Reset.Time.Format("15:04"))
	case errors.As(err, &abuseErr):
		return "Too many requests. Try again in a moment."
	case errors.As(err, &respErr):
		return describeResponse(respErr)
	case errors.As(err, &netErr):
		return "Could not reach the gist service. Check your connection."
	}

	return capitalize(err.Error())
}

func describeResponse(err *github.ErrorResponse) string {
	status := 0
	if err.Response != nil {
		status = err.Response.StatusCode
	}

	switch status {
	case http.StatusUnauthorized:
		return "Authentication failed. Check your access token."
	case http.StatusForbidden:
		return "You do not have permission to do that."
	case http.StatusNotFound:
		return "The gist could not be found."
	case http.StatusUnprocessableEntity:
		if err.Message != "" {
			return "Validation failed: " + err.Message + "."
		}
		return "Validation failed."
	}

	if err.Message != "" {
		return capitalize(err.Message)
	}
	return fmt.Sprintf("The gist service returned status %d.", status)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
