package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/d60-Lab/recipehub/internal/model"
	"github.com/d60-Lab/recipehub/internal/repository"
	"github.com/d60-Lab/recipehub/internal/service"
	"github.com/d60-Lab/recipehub/pkg/database"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Benchmarks against the configured database",
}

var benchCartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Seed a shopping cart and measure report build latency",
	RunE:  runBenchCart,
}

func init() {
	f := benchCartCmd.Flags()
	f.Int("recipes", 50, "recipes in the cart")
	f.Int("lines", 12, "ingredient lines per recipe")
	f.Int("catalog", 200, "distinct ingredients to draw from")
	f.Int("iterations", 200, "report builds to run")
	f.Int("concurrency", 4, "concurrent report builders")
	f.Bool("cleanup", true, "delete seeded recipes afterwards")
	benchCmd.AddCommand(benchCartCmd)
}

type cartBench struct {
	recipes, lines, catalog, iterations, concurrency int
	cleanup                                          bool
}

func runBenchCart(cmd *cobra.Command, _ []string) error {
	var o cartBench
	f := cmd.Flags()
	o.recipes, _ = f.GetInt("recipes")
	o.lines, _ = f.GetInt("lines")
	o.catalog, _ = f.GetInt("catalog")
	o.iterations, _ = f.GetInt("iterations")
	o.concurrency, _ = f.GetInt("concurrency")
	o.cleanup, _ = f.GetBool("cleanup")
	if o.recipes <= 0 || o.iterations <= 0 || o.concurrency <= 0 || o.lines <= 0 {
		return fmt.Errorf("recipes, lines, iterations and concurrency must be positive")
	}
	if o.lines > o.catalog {
		return fmt.Errorf("lines (%d) cannot exceed catalog (%d)", o.lines, o.catalog)
	}

	ctx := cmd.Context()
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	if err := database.Migrate(a.db); err != nil {
		return err
	}

	seedStart := time.Now()
	shopper, recipeIDs, err := seedCart(ctx, a, o)
	if err != nil {
		return err
	}
	seedDur := time.Since(seedStart)
	if o.cleanup {
		defer func() {
			for _, id := range recipeIDs {
				_ = a.recipes.Delete(context.Background(), id)
			}
		}()
	}

	svc := service.NewShoppingService(a.members)
	lat := make([]time.Duration, 0, o.iterations)
	var mu sync.Mutex
	var firstErr error
	feed := make(chan struct{}, o.iterations)
	for i := 0; i < o.iterations; i++ {
		feed <- struct{}{}
	}
	close(feed)

	workers := o.concurrency
	if workers > o.iterations {
		workers = o.iterations
	}
	lines := 0
	t0 := time.Now()
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range feed {
				st := time.Now()
				rep, err := svc.BuildReport(ctx, shopper)
				d := time.Since(st)
				mu.Lock()
				lat = append(lat, d)
				if err != nil && firstErr == nil {
					firstErr = err
				}
				if rep != nil {
					lines = len(rep.Lines)
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	total := time.Since(t0)
	if firstErr != nil {
		return firstErr
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "recipes=%d lines=%d catalog=%d iterations=%d concurrency=%d\n",
		o.recipes, o.lines, o.catalog, o.iterations, o.concurrency)
	fmt.Fprintf(out, "seed: %v\n", seedDur)
	fmt.Fprintf(out, "report lines: %d\n", lines)
	fmt.Fprintf(out, "build total: %v, per op: %v, p50: %v, p95: %v, p99: %v\n",
		total, total/time.Duration(o.iterations), pct(lat, 0.50), pct(lat, 0.95), pct(lat, 0.99))
	return nil
}

// seedCart 创建一位作者、一位购物者和装满购物车的菜谱，名称带本次运行的前缀
func seedCart(ctx context.Context, a *app, o cartBench) (string, []string, error) {
	run := uuid.New().String()[:8]
	chef := &model.User{ID: uuid.New().String(), Email: "chef-" + run + "@bench.local", Username: "chef-" + run,
		FirstName: "Bench", LastName: "Chef", PasswordHash: "-"}
	shopper := &model.User{ID: uuid.New().String(), Email: "shopper-" + run + "@bench.local", Username: "shopper-" + run,
		FirstName: "Bench", LastName: "Shopper", PasswordHash: "-"}
	for _, u := range []*model.User{chef, shopper} {
		if err := a.users.Create(ctx, u); err != nil {
			return "", nil, fmt.Errorf("seed user: %w", err)
		}
	}

	tags := []model.Tag{{ID: uuid.New().String(), Name: "bench " + run, Color: "#49B64E", Slug: "bench-" + run}}
	if _, err := a.tags.BulkInsert(ctx, tags); err != nil {
		return "", nil, fmt.Errorf("seed tag: %w", err)
	}
	items := make([]model.Ingredient, o.catalog)
	for i := range items {
		items[i] = model.Ingredient{ID: uuid.New().String(), Name: fmt.Sprintf("bench-%s-%03d", run, i), MeasurementUnit: "g"}
	}
	if _, err := a.ingredients.BulkInsert(ctx, items); err != nil {
		return "", nil, fmt.Errorf("seed ingredients: %w", err)
	}

	rng := rand.New(rand.NewSource(1))
	ids := make([]string, 0, o.recipes)
	for i := 0; i < o.recipes; i++ {
		perm := rng.Perm(o.catalog)[:o.lines]
		comp := repository.Composition{TagIDs: []string{tags[0].ID}, Lines: make([]repository.CompositionLine, o.lines)}
		for j, idx := range perm {
			comp.Lines[j] = repository.CompositionLine{IngredientID: items[idx].ID, Amount: 1 + rng.Intn(500)}
		}
		rec := &model.Recipe{AuthorID: chef.ID, Name: fmt.Sprintf("bench %s #%d", run, i), Image: "-", Text: "-", CookingTime: 30}
		if err := a.recipes.Create(ctx, rec, comp); err != nil {
			return "", ids, fmt.Errorf("seed recipe: %w", err)
		}
		ids = append(ids, rec.ID)
		if _, err := a.members.Add(ctx, model.KindShoppingCart, shopper.ID, rec.ID); err != nil {
			return "", ids, fmt.Errorf("seed cart: %w", err)
		}
	}
	return shopper.ID, ids, nil
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}
