// Serve command runs the portal's HTTP API.
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/med-x/opsportal/internal/audit"
	"github.com/med-x/opsportal/internal/session"
	"github.com/med-x/opsportal/internal/web"
	"github.com/med-x/opsportal/pkg/types"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the portal web API",
	Long: `Serve runs the dashboard HTTP API. Each login gets its own
worksheet session, torn down on logout or shutdown. Identity comes from
POST /api/login or from X-Auth-Request-Email set by a reverse proxy.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stores, err := openStores()
		if err != nil {
			fmt.Fprintln(os.Stderr, "serve:", err)
			os.Exit(exitSysError)
		}
		defer stores.close()

		sink := audit.NewSheetSink(stores.audit)
		factory := func(user types.Identity) (*session.Session, error) {
			sess := session.New(user, stores.tasks, sink)
			sess.AssigneeRule = newVerifier().AllowedEmail
			return sess, nil
		}

		server := web.NewServer(&web.Config{Port: servePort, Logger: log.Default()}, newVerifier(), factory)
		if err := server.Start(); err != nil {
			return fmt.Errorf("start server: %w", err)
		}

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop

		return server.Stop()
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "port to listen on")
}
