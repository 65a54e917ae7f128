// Copyright 2025 The CrowdMap Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jcodagnone/crowdmap/utils/httputils"
)

const maxBodySize = 8 << 20

func defaultClient(client *http.Client) *http.Client {
	if client != nil {
		return client
	}

	return httputils.NewClient(httputils.ClientOptions{})
}

// getJSON issues a GET and decodes a JSON body into v. Non-2xx answers are
// classified with ClassifyHTTPStatus; a JSON "error" field in such a body
// becomes the message.
func getJSON(ctx context.Context, client *http.Client, reqURL string, header http.Header, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	for k, vs := range header {
		for _, hv := range vs {
			req.Header.Add(k, hv)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return transportError(err)
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return transportError(fmt.Errorf("reading body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		re := ClassifyHTTPStatus(resp.StatusCode)

		var upstream struct {
			Error string `json:"error"`
		}

		if json.Unmarshal(body, &upstream) == nil && upstream.Error != "" {
			re.Message = upstream.Error
		}

		return re
	}

	if err := json.Unmarshal(body, v); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return malformedError("response is not JSON", err)
		}

		return malformedError("unexpected response shape", err)
	}

	return nil
}
