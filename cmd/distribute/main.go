// Package main validates a calculated result bundle and submits one payment
// per yield row.
// Executes: bundle load → validation gate → wallet registration → payout pass
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"xrpl-airdrop/internal/bundle"
	"xrpl-airdrop/internal/calc"
	"xrpl-airdrop/internal/distribute"
	"xrpl-airdrop/internal/domain"
	"xrpl-airdrop/internal/validate"
	"xrpl-airdrop/internal/xrpl"
)

const (
	defaultEndpoint    = "https://s1.ripple.com:51234"
	defaultFailureFile = "airdrop_failures.csv"
)

func main() {
	dataDir := flag.String("data-dir", ".", "Directory holding the result bundle")
	budgetFlag := flag.String("budget", "", "Budget used for the calculation (revalidated against the bundle)")
	seedFlag := flag.String("seed", "", "Family seed of the sending wallet")
	account := flag.String("account", "", "Sender classic address (required for secp256k1 seeds)")
	currency := flag.String("currency", "", "Currency code being paid out (XRP for native; defaults to the bundle token column)")
	endpoint := flag.String("endpoint", defaultEndpoint, "XRPL JSON-RPC endpoint")
	failureFile := flag.String("failures", "", "Failure CSV path (default <data-dir>/"+defaultFailureFile+")")
	yes := flag.Bool("yes", false, "Skip the confirmation prompt")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Printf("\nReceived signal %v, stopping after the current payment...\n", sig)
		cancel()
	}()

	stdin := bufio.NewReader(os.Stdin)

	data, meta, err := bundle.Read(*dataDir)
	if err != nil {
		fatalf("load bundle: %v", err)
	}
	fmt.Printf("=== Airdrop Distribution ===\n")
	fmt.Printf("Bundle: %d rows of %s from %s\n", len(data.Rows), data.TokenName, *dataDir)

	budgetInput := strings.TrimSpace(*budgetFlag)
	if budgetInput == "" {
		budgetInput = prompt(stdin, "Airdrop budget: ")
	}
	budget, err := calc.ParseBudget(budgetInput)
	if err != nil {
		fatalf("invalid budget: %v", err)
	}

	validator := validate.New(validate.Options{Data: data, Meta: meta, Budget: budget})
	if err := validator.Run(); err != nil {
		fatalf("bundle rejected (%s): %v", validator.State(), err)
	}
	fmt.Printf("Bundle validated: %s\n", validator.State())

	seed := strings.TrimSpace(*seedFlag)
	if seed == "" {
		seed = prompt(stdin, "Sender family seed: ")
	}
	wallet, err := xrpl.WalletFromSeed(seed)
	if err != nil {
		fatalf("invalid seed: %v", err)
	}
	sender := strings.TrimSpace(*account)
	if sender == "" {
		if wallet.Address == "" {
			fatalf("%s seeds need -account for the sender address", wallet.Algorithm)
		}
		sender = wallet.Address
	}
	if err := xrpl.ValidateAddress(sender); err != nil {
		fatalf("invalid sender address %q: %v", sender, err)
	}

	token, err := resolveToken(sender, strings.TrimSpace(*currency), data.TokenName)
	if err != nil {
		fatalf("%v", err)
	}

	fmt.Printf("Sender: %s\n", sender)
	fmt.Printf("Paying: %s per yield row\n", token)
	if !*yes {
		answer := prompt(stdin, fmt.Sprintf("Submit %d payments? [y/N]: ", len(data.Rows)))
		if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
			fmt.Println("Aborted by operator.")
			os.Exit(1)
		}
	}

	client := xrpl.NewHTTPClient(*endpoint)
	defer client.Close()

	executor := distribute.New(distribute.Options{
		Submitter: client,
		Token:     token,
		Account:   sender,
	})
	if err := executor.RegisterWallet(seed); err != nil {
		fatalf("%v", err)
	}

	report, err := executor.Run(ctx, data.Rows)
	if report != nil {
		fmt.Printf("\nDistribution completed:\n")
		fmt.Printf("  Submitted: %d\n", report.Submitted)
		fmt.Printf("  Failed:    %d\n", len(report.Failures))
		reportFailures(*dataDir, *failureFile, report.Failures)
	}
	if err != nil {
		fatalf("distribution stopped early: %v", err)
	}
	if report != nil && len(report.Failures) > 0 {
		os.Exit(1)
	}
}

// resolveToken decides what each row pays out. The issuer is always the
// sender: an airdrop distributes the sender's own token or native XRP.
func resolveToken(sender, currency, bundleToken string) (domain.TokenRef, error) {
	code := currency
	if code == "" {
		code = bundleToken
	}
	if code == "" {
		return domain.TokenRef{}, fmt.Errorf("no currency code; pass -currency")
	}
	if domain.IsNativeCode(code) {
		return domain.Native(), nil
	}
	return domain.Issued(sender, code, ""), nil
}

// reportFailures writes the failure CSV, falling back to the console when
// the write itself fails.
func reportFailures(dataDir, path string, failures []distribute.FailedPayment) {
	if len(failures) == 0 {
		return
	}
	if path == "" {
		path = filepath.Join(dataDir, defaultFailureFile)
	}
	if err := distribute.WriteFailures(path, failures); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not write %s: %v\n", path, err)
		distribute.RenderFailures(os.Stderr, failures)
		return
	}
	fmt.Printf("  Failures:  %s\n", path)
}

func prompt(stdin *bufio.Reader, label string) string {
	fmt.Print(label)
	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return ""
	}
	return strings.TrimSpace(line)
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
