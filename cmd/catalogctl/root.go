package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"Transflower/internal/catalog"
)

type options struct {
	url     string
	token   string
	timeout time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Manage the product catalog over its HTTP API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.url, "url", envOr("CATALOG_URL", "http://localhost:8082"), "catalog base URL")
	root.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("CATALOG_TOKEN"), "bearer token for write commands")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 5*time.Second, "request timeout")

	root.AddCommand(
		newListCmd(opts),
		newGetCmd(opts),
		newAddCmd(opts),
		newUpdateCmd(opts),
		newDeleteCmd(opts),
		newTokenCmd(opts),
		newHashPasswordCmd(),
	)
	return root
}

func (o *options) client() *catalog.Client {
	c := catalog.NewClient(o.url, o.token)
	c.Client.Timeout = o.timeout
	return c
}

func parseProduct(args []string) (catalog.Product, error) {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return catalog.Product{}, fmt.Errorf("bad id %q: %w", args[0], err)
	}
	price, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("bad price %q: %w", args[2], err)
	}
	return catalog.Product{ID: id, Name: args[1], Price: price}, nil
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("bad id %q: %w", s, err)
	}
	return id, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
