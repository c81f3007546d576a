// Package main computes a proportional airdrop over the holders of an
// issued token and writes the result bundle.
// Executes: discovery → balance fetch → aggregation → bundle write → archive
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"xrpl-airdrop/internal/calc"
	"xrpl-airdrop/internal/domain"
	"xrpl-airdrop/internal/orchestrator"
	"xrpl-airdrop/internal/storage"
	chstore "xrpl-airdrop/internal/storage/clickhouse"
	"xrpl-airdrop/internal/storage/migrations"
	pgstore "xrpl-airdrop/internal/storage/postgres"
	"xrpl-airdrop/internal/xrpl"
	"xrpl-airdrop/internal/xrplmeta"
)

const defaultEndpoint = "https://s1.ripple.com:51234"

func main() {
	issuingAddress := flag.String("issuing-address", "", "Issuer of the airdropped token")
	issuingCurrency := flag.String("issuing-currency", "", "Currency code of the airdropped token (picked from the token catalog when empty)")
	yieldingAddress := flag.String("yielding-address", "", "Issuer of the yielding token (empty for XRP)")
	yieldingCurrency := flag.String("yielding-currency", "XRP", "Currency code of the yielding token")
	budgetFlag := flag.String("budget", "", "Total amount to distribute")
	outputDir := flag.String("output", ".", "Directory for the result bundle")
	endpoint := flag.String("endpoint", defaultEndpoint, "XRPL endpoint (http(s) JSON-RPC or ws(s) WebSocket)")
	metaEndpoint := flag.String("meta-endpoint", xrplmeta.DefaultEndpoint, "XRPL Meta endpoint for token names")
	postgresDSN := flag.String("postgres-dsn", "", "Optional Postgres DSN for the run archive")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "Optional ClickHouse DSN for the yield row archive")
	workers := flag.Int("workers", 0, "Concurrent balance fetchers (0 for default)")
	clients := flag.Int("clients", xrpl.DefaultPoolSize, "Pooled ledger clients")
	pageLimit := flag.Int("page-limit", 0, "Trustlines per page (0 for server default)")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Printf("\nReceived signal %v, cancelling run...\n", sig)
		cancel()
	}()

	stdin := bufio.NewReader(os.Stdin)

	issuer := strings.TrimSpace(*issuingAddress)
	if issuer == "" {
		issuer = prompt(stdin, "Issuing account address: ")
	}
	if err := xrpl.ValidateAddress(issuer); err != nil {
		fatalf("invalid issuing address %q: %v", issuer, err)
	}

	fetchTokens := func() xrplmeta.Catalog { return fetchCatalog(ctx, *metaEndpoint) }
	issuedToken, err := resolveIssuedToken(stdin, fetchTokens, issuer, strings.TrimSpace(*issuingCurrency))
	if err != nil {
		fatalf("%v", err)
	}

	yieldingToken, err := resolveYieldingToken(strings.TrimSpace(*yieldingAddress), strings.TrimSpace(*yieldingCurrency))
	if err != nil {
		fatalf("%v", err)
	}

	budgetInput := strings.TrimSpace(*budgetFlag)
	if budgetInput == "" {
		budgetInput = prompt(stdin, fmt.Sprintf("Airdrop budget (%s): ", issuedToken.Display()))
	}
	budget, err := calc.ParseBudget(budgetInput)
	if err != nil {
		fatalf("invalid budget: %v", err)
	}

	pool, err := buildPool(ctx, *endpoint, *clients)
	if err != nil {
		fatalf("build client pool: %v", err)
	}
	defer pool.Close()

	runStore, yieldRowStores, closeArchives, err := buildArchives(ctx, *postgresDSN, *clickhouseDSN)
	if err != nil {
		fatalf("connect archive: %v", err)
	}
	defer closeArchives()

	fmt.Printf("=== Airdrop Calculation ===\n")
	fmt.Printf("Token:    %s issued by %s\n", issuedToken.Display(), issuer)
	fmt.Printf("Yielding: %s\n", yieldingToken)
	fmt.Printf("Budget:   %s\n", budget)

	orch := orchestrator.New(orchestrator.Options{
		Pool:           pool,
		IssuedToken:    issuedToken,
		YieldingToken:  yieldingToken,
		Budget:         budget,
		OutputDir:      *outputDir,
		PageLimit:      *pageLimit,
		Workers:        *workers,
		RunStore:       runStore,
		YieldRowStores: yieldRowStores,
	})

	result, err := orch.Run(ctx)
	if err != nil {
		fatalf("%v", err)
	}

	fmt.Printf("\nCalculation completed:\n")
	fmt.Printf("  Holders:      %d\n", result.Holders)
	fmt.Printf("  Yield rows:   %d\n", result.Rows)
	fmt.Printf("  Filtered:     %d\n", result.Filtered)
	fmt.Printf("  Dead letters: %d\n", result.DeadLetters)
	fmt.Printf("  Sum:          %s\n", result.Sum)
	fmt.Printf("  Ratio:        %s\n", result.Ratio)
	fmt.Printf("  Bundle:       %s\n", result.OutputDir)
	if len(result.Warnings) > 0 {
		fmt.Printf("  Warnings: %d\n", len(result.Warnings))
		for _, w := range result.Warnings {
			fmt.Printf("    - %s\n", w)
		}
	}
}

// fetchCatalog loads token names from XRPL Meta. The catalog is cosmetic:
// a fetch failure downgrades to plain currency codes.
func fetchCatalog(ctx context.Context, endpoint string) xrplmeta.Catalog {
	client := xrplmeta.New(xrplmeta.Options{Endpoint: endpoint})
	catalog, err := client.FetchCatalog(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: token catalog unavailable: %v\n", err)
		return xrplmeta.Catalog{}
	}
	return catalog
}

// resolveIssuedToken picks the airdropped token. An explicit currency code
// is taken as-is; only with no -issuing-currency is the catalog fetched
// and the issuer's entries offered for selection.
func resolveIssuedToken(stdin *bufio.Reader, fetch func() xrplmeta.Catalog, issuer, currency string) (domain.TokenRef, error) {
	if currency != "" {
		return domain.Issued(issuer, currency, ""), nil
	}

	tokens := fetch().Tokens(issuer)
	switch len(tokens) {
	case 0:
		code := prompt(stdin, "Issued currency code: ")
		if code == "" {
			return domain.TokenRef{}, fmt.Errorf("no currency code given")
		}
		return domain.Issued(issuer, code, ""), nil
	case 1:
		return domain.Issued(issuer, tokens[0].Currency, tokens[0].Name), nil
	default:
		fmt.Printf("Tokens issued by %s:\n", issuer)
		for i, t := range tokens {
			label := t.Currency
			if t.Name != "" {
				label = fmt.Sprintf("%s (%s)", t.Currency, t.Name)
			}
			fmt.Printf("  %d. %s\n", i+1, label)
		}
		choice := prompt(stdin, fmt.Sprintf("Select token [1-%d]: ", len(tokens)))
		n, err := strconv.Atoi(choice)
		if err != nil || n < 1 || n > len(tokens) {
			return domain.TokenRef{}, fmt.Errorf("invalid selection %q", choice)
		}
		picked := tokens[n-1]
		return domain.Issued(issuer, picked.Currency, picked.Name), nil
	}
}

// resolveYieldingToken decides the balance being weighted: XRP unless an
// issued token is named explicitly.
func resolveYieldingToken(issuer, currency string) (domain.TokenRef, error) {
	if issuer == "" {
		if !domain.IsNativeCode(currency) {
			return domain.TokenRef{}, fmt.Errorf("yielding currency %q needs -yielding-address", currency)
		}
		return domain.Native(), nil
	}
	if err := xrpl.ValidateAddress(issuer); err != nil {
		return domain.TokenRef{}, fmt.Errorf("invalid yielding address %q: %w", issuer, err)
	}
	if domain.IsNativeCode(currency) {
		return domain.TokenRef{}, fmt.Errorf("XRP has no issuer; drop -yielding-address for a native yield")
	}
	return domain.Issued(issuer, currency, ""), nil
}

// buildPool dials one client per slot. The endpoint scheme picks the
// transport: ws(s) endpoints speak the WebSocket protocol.
func buildPool(ctx context.Context, endpoint string, size int) (*xrpl.Pool, error) {
	if size <= 0 {
		size = xrpl.DefaultPoolSize
	}
	clients := make([]xrpl.Client, size)
	for i := range clients {
		client, err := xrpl.Dial(ctx, endpoint)
		if err != nil {
			for _, c := range clients[:i] {
				c.Close()
			}
			return nil, err
		}
		clients[i] = client
	}
	return xrpl.NewPool(clients...)
}

// buildArchives connects the optional run archives. Both DSNs are optional
// and independent.
func buildArchives(ctx context.Context, postgresDSN, clickhouseDSN string) (storage.RunStore, []storage.YieldRowStore, func(), error) {
	var (
		runStore  storage.RunStore
		rowStores []storage.YieldRowStore
		closers   []func()
	)
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if postgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, postgresDSN)
		if err != nil {
			return nil, nil, closeAll, err
		}
		closers = append(closers, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return nil, nil, closeAll, err
		}
		runStore = pgstore.NewRunStore(pool)
		rowStores = append(rowStores, pgstore.NewYieldRowStore(pool))
	}

	if clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
		if err != nil {
			return nil, nil, closeAll, err
		}
		closers = append(closers, func() { _ = conn.Close() })
		rowStores = append(rowStores, chstore.NewYieldRowStore(conn))
	}

	return runStore, rowStores, closeAll, nil
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
