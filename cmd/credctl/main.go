package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/credence-id/credence/pkg/client"
)

// version is overridden by goreleaser via -ldflags "-X main.version=...".
var version = "dev"

var (
	ledgerURL string
	cfgFile   string
	token     string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "credctl",
	Short: "credence trust ledger CLI",
	Long: `credctl is the command-line interface for a credence trust ledger.

It manages identities, role grants, reputation events, and verification
requests against a running ledgerd instance.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".credence"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()

		if ledgerURL == "" {
			ledgerURL = viper.GetString("ledger_url")
		}
		if ledgerURL == "" {
			ledgerURL = "http://localhost:8080"
		}
		if token == "" {
			token = viper.GetString("token")
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.credence/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&ledgerURL, "ledger", "", "ledgerd base URL (default http://localhost:8080)")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "bearer token (default from config or TOKEN env)")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(identityCmd)
	rootCmd.AddCommand(grantCmd)
	rootCmd.AddCommand(revokeCmd)
	rootCmd.AddCommand(rolesCmd)
	rootCmd.AddCommand(repCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(webhookCmd)
	rootCmd.AddCommand(versionCmd)
}

// newClient builds an SDK client with the configured token attached.
func newClient() *client.Client {
	opts := []client.Option{}
	if token != "" {
		opts = append(opts, client.WithBearerToken(token))
	}
	return client.MustNew(ledgerURL, opts...)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ── login ────────────────────────────────────────────────────────────────────

var loginRegister bool

var loginCmd = &cobra.Command{
	Use:   "login <principal>",
	Short: "Obtain a bearer token and save it to the config file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		principal := args[0]
		secret := os.Getenv("CREDENCE_SECRET")
		if secret == "" {
			return fmt.Errorf("set CREDENCE_SECRET to the principal's secret")
		}

		c := client.MustNew(ledgerURL)
		ctx := context.Background()

		if loginRegister {
			if err := c.RegisterPrincipal(ctx, principal, secret); err != nil {
				return fmt.Errorf("register principal: %w", err)
			}
			fmt.Printf("registered principal %s\n", principal)
		}

		if err := c.Login(ctx, principal, secret); err != nil {
			return fmt.Errorf("login: %w", err)
		}

		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		dir := filepath.Join(home, ".credence")
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
		cfg := fmt.Sprintf("ledger_url: %s\ntoken: %s\n", ledgerURL, c.Token())
		if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(cfg), 0o600); err != nil {
			return err
		}

		fmt.Printf("logged in as %s — token saved to %s\n", principal, filepath.Join(dir, "config.yaml"))
		return nil
	},
}

func init() {
	loginCmd.Flags().BoolVar(&loginRegister, "register", false, "Register the principal before logging in")
}

// ── identity ─────────────────────────────────────────────────────────────────

var identityCmd = &cobra.Command{
	Use:   "identity",
	Short: "Manage identities",
}

var identityMetadata string

var identityRegisterCmd = &cobra.Command{
	Use:   "register <credential-hash>",
	Short: "Bind a credential hash to the logged-in principal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := client.RegisterIdentityRequest{CredentialHash: args[0]}
		if identityMetadata != "" {
			req.Metadata = json.RawMessage(identityMetadata)
		}
		id, err := newClient().RegisterIdentity(context.Background(), req)
		if err != nil {
			return err
		}
		fmt.Printf("identity registered: %s\n", id)
		return nil
	},
}

var identityRotateCmd = &cobra.Command{
	Use:   "rotate <new-credential-hash>",
	Short: "Rotate the logged-in principal's credential hash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := client.RegisterIdentityRequest{CredentialHash: args[0]}
		if identityMetadata != "" {
			req.Metadata = json.RawMessage(identityMetadata)
		}
		ident, err := newClient().UpdateIdentity(context.Background(), req)
		if err != nil {
			return err
		}
		return printJSON(ident)
	},
}

var identityDeactivateCmd = &cobra.Command{
	Use:   "deactivate",
	Short: "Permanently deactivate the logged-in principal's identity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClient().DeactivateIdentity(context.Background()); err != nil {
			return err
		}
		fmt.Println("identity deactivated (irreversible)")
		return nil
	},
}

var identityShowCmd = &cobra.Command{
	Use:   "show [principal]",
	Short: "Show an identity (defaults to the logged-in principal)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		ctx := context.Background()
		var (
			ident *client.Identity
			err   error
		)
		if len(args) == 1 {
			ident, err = c.GetIdentityByOwner(ctx, args[0])
		} else {
			ident, err = c.GetMyIdentity(ctx)
		}
		if err != nil {
			return err
		}
		return printJSON(ident)
	},
}

func init() {
	identityRegisterCmd.Flags().StringVar(&identityMetadata, "metadata", "", "Inline JSON metadata stored alongside the identity")
	identityRotateCmd.Flags().StringVar(&identityMetadata, "metadata", "", "Inline JSON metadata stored alongside the identity")
	identityCmd.AddCommand(identityRegisterCmd)
	identityCmd.AddCommand(identityRotateCmd)
	identityCmd.AddCommand(identityDeactivateCmd)
	identityCmd.AddCommand(identityShowCmd)
}

// ── access control ───────────────────────────────────────────────────────────

var grantCmd = &cobra.Command{
	Use:   "grant <issuer|verifier> <principal>",
	Short: "Grant a role to a principal (owner only)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClient().GrantRole(context.Background(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("granted %s to %s\n", args[0], args[1])
		return nil
	},
}

var revokeCmd = &cobra.Command{
	Use:   "revoke <issuer|verifier> <principal>",
	Short: "Revoke a role from a principal (owner only)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClient().RevokeRole(context.Background(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("revoked %s from %s\n", args[0], args[1])
		return nil
	},
}

var rolesCmd = &cobra.Command{
	Use:   "roles <principal>",
	Short: "List the roles held by a principal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		grants, err := newClient().ListGrants(context.Background(), args[0])
		if err != nil {
			return err
		}
		if len(grants) == 0 {
			fmt.Println("no grants")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ROLE\tACTIVE\tGRANTED BY\tUPDATED")
		for _, g := range grants {
			fmt.Fprintf(w, "%s\t%t\t%s\t%s\n",
				g.Role, g.Active, g.GrantedBy, g.UpdatedAt.Format(time.RFC3339))
		}
		return w.Flush()
	},
}

// ── reputation ───────────────────────────────────────────────────────────────

var repCmd = &cobra.Command{
	Use:   "rep",
	Short: "Manage reputation",
}

var (
	repDelta       int64
	repEventType   string
	repDescription string
	repProofRef    string
)

var repIssueCmd = &cobra.Command{
	Use:   "issue <target>",
	Short: "Issue a reputation event against a target principal (issuer role)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := newClient().IssueReputationEvent(context.Background(), client.IssueEventRequest{
			Target:      args[0],
			Delta:       repDelta,
			EventType:   repEventType,
			Description: repDescription,
			ProofRef:    repProofRef,
		})
		if err != nil {
			return err
		}
		fmt.Printf("event %s applied: %s now at score %d (trust level %d)\n",
			res.EventID, res.Target, res.TotalScore, res.TrustLevel)
		return nil
	},
}

var repShowCmd = &cobra.Command{
	Use:   "show <principal>",
	Short: "Show a principal's reputation account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		acct, err := newClient().GetAccount(context.Background(), args[0])
		if err != nil {
			return err
		}
		return printJSON(acct)
	},
}

var repHistoryCmd = &cobra.Command{
	Use:   "history <principal>",
	Short: "Show a principal's full score history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		events, err := newClient().ListReputationEvents(context.Background(), args[0])
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Println("no events")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIMESTAMP\tDELTA\tTYPE\tISSUER")
		for _, ev := range events {
			fmt.Fprintf(w, "%s\t%+d\t%s\t%s\n",
				ev.Timestamp.Format(time.RFC3339), ev.Delta, ev.EventType, ev.Issuer)
		}
		return w.Flush()
	},
}

func init() {
	repIssueCmd.Flags().Int64Var(&repDelta, "delta", 0, "Score delta, -50..50 excluding 0 (required)")
	repIssueCmd.Flags().StringVar(&repEventType, "type", "", "Event type label (required)")
	repIssueCmd.Flags().StringVar(&repDescription, "description", "", "Free-form description")
	repIssueCmd.Flags().StringVar(&repProofRef, "proof-ref", "", "Reference to supporting evidence (required)")
	_ = repIssueCmd.MarkFlagRequired("delta")
	_ = repIssueCmd.MarkFlagRequired("type")
	_ = repIssueCmd.MarkFlagRequired("proof-ref")

	repCmd.AddCommand(repIssueCmd)
	repCmd.AddCommand(repShowCmd)
	repCmd.AddCommand(repHistoryCmd)
}

// ── verification ─────────────────────────────────────────────────────────────

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Manage verification requests",
}

var (
	verifyType    string
	verifyProof   []string
	verifySignals []string
)

var verifyRequestCmd = &cobra.Command{
	Use:   "request <credential-hash>",
	Short: "Open a verification request for a credential hash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := client.RequestVerificationRequest{
			CredentialHash:   args[0],
			VerificationType: verifyType,
		}
		if len(verifyProof) > len(req.Proof) {
			return fmt.Errorf("at most %d proof components", len(req.Proof))
		}
		if len(verifySignals) > len(req.PublicSignals) {
			return fmt.Errorf("at most %d public signals", len(req.PublicSignals))
		}
		copy(req.Proof[:], verifyProof)
		copy(req.PublicSignals[:], verifySignals)

		id, err := newClient().RequestVerification(context.Background(), req)
		if err != nil {
			return err
		}
		fmt.Printf("verification request opened: %s\n", id)
		return nil
	},
}

var verifyRejected bool
var verifyResultRef string

var verifyCompleteCmd = &cobra.Command{
	Use:   "complete <request-id>",
	Short: "Complete a pending verification request (verifier role)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClient().CompleteVerification(context.Background(),
			args[0], !verifyRejected, verifyResultRef); err != nil {
			return err
		}
		outcome := "verified"
		if verifyRejected {
			outcome = "rejected"
		}
		fmt.Printf("request %s completed: %s\n", args[0], outcome)
		return nil
	},
}

var verifyShowCmd = &cobra.Command{
	Use:   "show <request-id>",
	Short: "Show a verification request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := newClient().GetVerificationRequest(context.Background(), args[0])
		if err != nil {
			return err
		}
		return printJSON(req)
	},
}

var verifyStatusCmd = &cobra.Command{
	Use:   "status <credential-hash> [credential-hash...]",
	Short: "Show the verification status of one or more credential hashes",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		ctx := context.Background()

		if len(args) == 1 {
			status, err := c.GetCredentialStatus(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(status)
		}

		verified, err := c.BatchCredentialStatus(ctx, args)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "HASH\tVERIFIED")
		for i, hash := range args {
			fmt.Fprintf(w, "%s\t%t\n", hash, verified[i])
		}
		return w.Flush()
	},
}

func init() {
	verifyRequestCmd.Flags().StringVar(&verifyType, "type", "", "Verification type label (required)")
	verifyRequestCmd.Flags().StringSliceVar(&verifyProof, "proof", nil, "Proof components, up to 8")
	verifyRequestCmd.Flags().StringSliceVar(&verifySignals, "signals", nil, "Public signals, up to 4")
	_ = verifyRequestCmd.MarkFlagRequired("type")

	verifyCompleteCmd.Flags().BoolVar(&verifyRejected, "reject", false, "Record the outcome as rejected instead of verified")
	verifyCompleteCmd.Flags().StringVar(&verifyResultRef, "result-ref", "", "Reference to the verification result document")

	verifyCmd.AddCommand(verifyRequestCmd)
	verifyCmd.AddCommand(verifyCompleteCmd)
	verifyCmd.AddCommand(verifyShowCmd)
	verifyCmd.AddCommand(verifyStatusCmd)
}

// ── audit ────────────────────────────────────────────────────────────────────

var auditCmd = &cobra.Command{
	Use:   "audit [index]",
	Short: "Inspect the audit chain: overview, a single entry, or --verify",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		ctx := context.Background()

		if auditVerify {
			if err := c.VerifyAuditChain(ctx); err != nil {
				return err
			}
			fmt.Println("audit chain intact")
			return nil
		}

		if len(args) == 1 {
			var idx int
			if _, err := fmt.Sscanf(args[0], "%d", &idx); err != nil {
				return fmt.Errorf("index must be an integer")
			}
			entry, err := c.GetAuditEntry(ctx, idx)
			if err != nil {
				return err
			}
			return printJSON(entry)
		}

		ov, err := c.GetAuditOverview(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("entries: %d\nroot:    %s\n", ov.Entries, ov.Root)
		return nil
	},
}

var auditVerify bool

func init() {
	auditCmd.Flags().BoolVar(&auditVerify, "verify", false, "Walk the full chain and check integrity")
}

// ── webhooks ─────────────────────────────────────────────────────────────────

var webhookCmd = &cobra.Command{
	Use:   "webhook",
	Short: "Manage webhook subscriptions",
}

var webhookEvents []string

var webhookAddCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Subscribe a URL to domain events",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sub, secret, err := newClient().SubscribeWebhook(context.Background(), args[0], webhookEvents)
		if err != nil {
			return err
		}
		fmt.Printf("subscription %s created for %s\n", sub.ID, strings.Join(sub.Events, ", "))
		fmt.Printf("signing secret (shown once): %s\n", secret)
		return nil
	},
}

var webhookListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the logged-in principal's subscriptions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		subs, err := newClient().ListWebhooks(context.Background())
		if err != nil {
			return err
		}
		if len(subs) == 0 {
			fmt.Println("no subscriptions")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tURL\tEVENTS\tACTIVE")
		for _, s := range subs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", s.ID, s.URL, strings.Join(s.Events, ","), s.Active)
		}
		return w.Flush()
	},
}

var webhookRemoveCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a subscription",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClient().UnsubscribeWebhook(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Println("subscription removed")
		return nil
	},
}

func init() {
	webhookAddCmd.Flags().StringSliceVar(&webhookEvents, "events", nil, "Event types to subscribe to (required)")
	_ = webhookAddCmd.MarkFlagRequired("events")

	webhookCmd.AddCommand(webhookAddCmd)
	webhookCmd.AddCommand(webhookListCmd)
	webhookCmd.AddCommand(webhookRemoveCmd)
}

// ── version ──────────────────────────────────────────────────────────────────

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the credctl version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("credctl %s\n", version)
	},
}
