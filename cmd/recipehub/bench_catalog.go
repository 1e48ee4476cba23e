package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"
)

var benchCatalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Measure ingredient search latency and catalog cache hit rate",
	RunE:  runBenchCatalog,
}

func init() {
	f := benchCatalogCmd.Flags()
	f.Int("requests", 2000, "searches to run")
	f.String("prefixes", "abcdefghijklmnopqrstuvwxyz", "first letters to search by")
	benchCmd.AddCommand(benchCatalogCmd)
}

func runBenchCatalog(cmd *cobra.Command, _ []string) error {
	n, _ := cmd.Flags().GetInt("requests")
	letters, _ := cmd.Flags().GetString("prefixes")
	if n <= 0 || letters == "" {
		return fmt.Errorf("requests and prefixes must be non-empty")
	}

	ctx := cmd.Context()
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	svc := a.catalogService()

	out := cmd.OutOrStdout()
	if a.cache == nil {
		fmt.Fprintln(out, "redis disabled: every search reads the database")
	} else {
		a.cache.ResetCounters()
	}

	rng := rand.New(rand.NewSource(1))
	runes := []rune(letters)
	lat := make([]time.Duration, 0, n)
	t0 := time.Now()
	for i := 0; i < n; i++ {
		prefix := string(runes[rng.Intn(len(runes))])
		st := time.Now()
		if _, err := svc.SearchIngredients(ctx, prefix); err != nil {
			return err
		}
		lat = append(lat, time.Since(st))
	}
	total := time.Since(t0)

	fmt.Fprintf(out, "requests=%d total=%v p50=%v p95=%v p99=%v\n", n, total, pct(lat, 0.50), pct(lat, 0.95), pct(lat, 0.99))
	if a.cache != nil {
		c := a.cache.Counters()
		hitRate := float64(c.Hits) / float64(n) * 100
		fmt.Fprintf(out, "cache hits=%d misses=%d db loads=%d hit rate=%.1f%%\n", c.Hits, c.Misses, c.Loads, hitRate)
	}
	return nil
}
