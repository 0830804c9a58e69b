// Package helpers provides utility functions for conformance runs.
package helpers

import (
	"bytes"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the process logger. format is "text" or "json"; an unknown
// level falls back to info.
func NewLogger(level, format string, debug bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	if strings.EqualFold(format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	if debug {
		lvl = logrus.DebugLevel
	}
	logger.SetLevel(lvl)

	return logger
}

// NormalizeURL removes trailing slashes from URLs to prevent double-slash issues
func NormalizeURL(urlStr string) string {
	return strings.TrimRight(urlStr, "/")
}

// GetFileType determines the RDF serialization format based on file extension
func GetFileType(filename string) string {
	filename = strings.ToLower(filename)

	switch {
	case strings.HasSuffix(filename, ExtRDF) || strings.HasSuffix(filename, ExtXML):
		return FormatRDFXML
	case strings.HasSuffix(filename, ExtTTL):
		return FormatTurtle
	case strings.HasSuffix(filename, ExtNTrips):
		return FormatNTriples
	case strings.HasSuffix(filename, ExtNQuads):
		return FormatNQuads
	default:
		return FormatUnknown
	}
}

// DebugHTTPTransport wraps an http.RoundTripper to log request/response details
type DebugHTTPTransport struct {
	Transport http.RoundTripper
	Log       logrus.FieldLogger
}

// RoundTrip implements http.RoundTripper interface with debugging
func (d *DebugHTTPTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	log := d.Log.WithFields(logrus.Fields{"method": req.Method, "url": req.URL.String()})
	log.Debug("http request")

	resp, err := d.Transport.RoundTrip(req)
	if err != nil {
		log.WithError(err).Debug("http request failed")
		return resp, err
	}

	log = log.WithField("status", resp.StatusCode)
	if resp.StatusCode < 400 {
		log.Debug("http response")
		return resp, nil
	}

	// Read the error body for the log, then restore it for the caller
	bodyBytes, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		log.WithError(readErr).Debug("failed to read error response body")
	} else {
		log.WithField("body", string(bodyBytes)).Debug("http error response")
	}
	resp.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

	return resp, nil
}

// EnableHTTPDebugLogging wraps the HTTP client with debug logging
func EnableHTTPDebugLogging(client *http.Client, log logrus.FieldLogger) *http.Client {
	if client == nil {
		client = &http.Client{}
	}

	if client.Transport == nil {
		client.Transport = http.DefaultTransport
	}

	client.Transport = &DebugHTTPTransport{
		Transport: client.Transport,
		Log:       log,
	}

	return client
}
