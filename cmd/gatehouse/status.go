// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package main

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/gatehouse/gatehouse/internal/config"
)

// NewStatusCmd creates the status subcommand.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check whether a running service is healthy",
		Long:  `Query the public status endpoint of a running Gatehouse API server.`,
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	url := statusURL(cfg.Server.Addr)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return oops.Code("STATUS_UNREACHABLE").With("url", url).Wrap(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return oops.Code("STATUS_UNREACHABLE").With("url", url).Wrap(err)
	}
	if resp.StatusCode != http.StatusOK {
		return oops.Code("STATUS_UNHEALTHY").
			With("url", url).
			With("status", resp.StatusCode).
			Errorf("service reported %d", resp.StatusCode)
	}

	cmd.Println(strings.TrimSpace(string(body)))
	return nil
}

// statusURL turns a listen address like ":8080" into a request URL.
func statusURL(addr string) string {
	host := addr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	return fmt.Sprintf("http://%s/api/v1/status", host)
}
