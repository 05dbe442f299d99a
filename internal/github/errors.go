package github

import (
	"encoding/base64"
	"net/http"
	"strings"
	"unicode/utf8"

	gogithub "github.com/google/go-github/v75/github"

	"github.com/sakif/repoedit/internal/apperror"
)

// classify turns a go-github failure into the apperror taxonomy.
//
// go-github hands back the *Response even when err != nil, as long as the
// server answered. A nil response means the request never completed.
//
//	401, 403           → ErrBadToken (including rate-limit 403s)
//	404                → ErrNotFound
//	2xx + decode error → ErrMalformed
//	anything else      → ErrTransport
func classify(op string, resp *gogithub.Response, err error) error {
	if resp == nil || resp.Response == nil {
		return apperror.Transport(op, err)
	}
	switch code := resp.StatusCode; {
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return apperror.BadToken()
	case code == http.StatusNotFound:
		return apperror.NotFoundMessage(op + ": not found")
	case code >= 200 && code < 300:
		return apperror.Malformed(op)
	default:
		return apperror.Transport(op, err)
	}
}

// decodeContent decodes a blob/contents payload. GitHub base64 output is
// wrapped at 60 columns, so newlines are stripped first.
func decodeContent(content, encoding string) (string, error) {
	var raw []byte
	switch encoding {
	case "utf-8", "":
		raw = []byte(content)
	case "base64":
		b, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(content, "\n", ""))
		if err != nil {
			return "", apperror.Malformed("content is not valid base64")
		}
		raw = b
	default:
		return "", apperror.Malformed("unsupported content encoding " + encoding)
	}

	if !utf8.Valid(raw) {
		return "", apperror.Malformed("content is not valid UTF-8")
	}
	return string(raw), nil
}
