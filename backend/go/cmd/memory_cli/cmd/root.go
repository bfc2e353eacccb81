package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"MedMemory/backend/go/internal/config"
	"MedMemory/backend/go/internal/discovery/etcd"
	"MedMemory/backend/go/pkg/circuitbreaker"
	pkghttp "MedMemory/backend/go/pkg/http"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	server        string
	etcdEndpoints []string
	serviceName   string
}

// NewRootCmd builds the command tree. Local commands (assess, time, decide)
// run the decision core in-process; remote commands talk to the service.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "memory-cli",
		Short:         "A CLI client for the medical memory service",
		Long:          `A command-line interface for checking statements and time phrases locally and for ingesting statements into the memory service.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.server, "server", "http://localhost:8090", "memory service base URL")
	root.PersistentFlags().StringSliceVar(&opts.etcdEndpoints, "etcd", nil, "etcd endpoints used to discover the service instead of --server")
	root.PersistentFlags().StringVar(&opts.serviceName, "service", "memory_service", "service name registered in etcd")

	root.AddCommand(newAssessCmd(), newTimeCmd(), newDecideCmd(), newIngestCmd(opts), newListCmd(opts))
	return root
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your CLI: %s\n", err)
		os.Exit(1)
	}
}

// client resolves the service address and wraps it with a breaker so a dead
// server fails fast across retries within one invocation.
func (o *rootOptions) client(ctx context.Context) (*pkghttp.Client, error) {
	base := o.server
	if len(o.etcdEndpoints) > 0 {
		discovery, err := etcd.NewServiceDiscovery(&config.EtcdConfig{Endpoints: o.etcdEndpoints})
		if err != nil {
			return nil, err
		}
		defer discovery.Close()
		addrs, err := discovery.Discover(ctx, o.serviceName)
		if err != nil {
			return nil, err
		}
		if len(addrs) == 0 {
			return nil, fmt.Errorf("no instance of %s registered in etcd", o.serviceName)
		}
		base = addrs[0]
	}
	return pkghttp.NewClient(normalizeBaseURL(base), circuitbreaker.New(3, 1, 10*time.Second)), nil
}

func normalizeBaseURL(addr string) string {
	addr = strings.TrimRight(addr, "/")
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return addr
	}
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseAnchor reads an optional RFC3339 or YYYY-MM-DD reference time.
func parseAnchor(s string) (func() time.Time, error) {
	if s == "" {
		return time.Now, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return func() time.Time { return t }, nil
		}
	}
	return nil, fmt.Errorf("invalid --at value %q", s)
}
