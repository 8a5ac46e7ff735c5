package onlineconfig

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"unicode/utf8"
)

// userAgent identifies this client to config publishers.
const userAgent = "online-balancer/1.0.0"

// fetch issues the single GET of a cycle. Non-2xx statuses are not an
// error here; whatever body comes back flows into the parser, which
// rejects anything that is not a valid document.
func (s *Service) fetch(ctx context.Context) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.configURL, nil)
	if err != nil {
		return nil, &CycleError{Stage: StageRequestConstruction, URL: s.configURL, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	rsp, err := s.client.Do(req)
	if err != nil {
		return nil, &CycleError{Stage: StageTransport, URL: s.configURL, Err: err}
	}

	return rsp, nil
}

// checkContentType verifies the SIP008-mandated
// "application/json; charset=utf-8" header. Deviations are logged and
// never abort the cycle: plenty of real-world publishers misconfigure
// this header, and rejecting them would break interoperability.
func (s *Service) checkContentType(rsp *http.Response) {
	value := rsp.Header.Get("Content-Type")
	if value == "" {
		s.logger.Warn("missing Content-Type in online config response",
			slog.String("url", s.configURL))
		return
	}

	mediaType, params, err := mime.ParseMediaType(value)
	if err != nil {
		s.logger.Warn("Content-Type parse failed",
			slog.String("url", s.configURL),
			slog.String("value", value),
			slog.String("error", err.Error()))
		return
	}

	if mediaType != "application/json" || !strings.EqualFold(params["charset"], "utf-8") {
		s.logger.Warn(`Content-Type is not "application/json; charset=utf-8", which is mandatory in standard SIP008`,
			slog.String("url", s.configURL),
			slog.String("value", value))
		return
	}

	s.logger.Debug("checked Content-Type", slog.String("value", value))
}

// collectBody reads the response body to completion and decodes it as
// UTF-8 text. A declared Content-Length pre-sizes the buffer as an
// optimization only; the buffer grows past it when the declared length
// is wrong.
func (s *Service) collectBody(rsp *http.Response) (string, error) {
	defer rsp.Body.Close()

	var capacity int64
	if rsp.ContentLength > 0 {
		capacity = rsp.ContentLength
	}

	buf := bytes.NewBuffer(make([]byte, 0, capacity))
	if _, err := io.Copy(buf, rsp.Body); err != nil {
		return "", &CycleError{Stage: StageBodyRead, URL: s.configURL, Err: err}
	}

	collected := buf.Bytes()
	if !utf8.Valid(collected) {
		return "", &CycleError{
			Stage: StageEncoding,
			URL:   s.configURL,
			Err:   errors.New("body contains non-utf8 bytes"),
		}
	}

	return string(collected), nil
}
