package cli

import (
	"fmt"
	"net"

	"github.com/spf13/cobra"

	gsheet "ledger/internal/sheets/google"
)

func (a *app) newSheetsAuthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sheets-auth",
		Short: "Authorize Google Sheets access as a user and store the token",
		Long: `Runs the OAuth consent flow for the client in GOOGLE_OAUTH_CLIENT_JSON or
GOOGLE_OAUTH_CLIENT_FILE. The client must allow the redirect URI
http://127.0.0.1:$OAUTH_REDIRECT_PORT/callback. The token is written to
GOOGLE_OAUTH_TOKEN_FILE.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			o := oauthConfig(a.cfg)
			if !o.Enabled() {
				return gsheet.ErrMissingOAuthClient
			}
			path := a.cfg.GoogleOAuthTokenFile
			if path == "" {
				path = "token.json"
			}

			ln, err := net.Listen("tcp", "127.0.0.1:"+a.cfg.OAuthRedirectPort)
			if err != nil {
				return fmt.Errorf("listen for oauth callback: %w", err)
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()
			tok, err := gsheet.Authorize(ctx, o, ln, a.out)
			if err != nil {
				return err
			}
			if err := gsheet.SaveToken(path, tok); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Saved token to %s\n", path)
			return nil
		},
	}
}
