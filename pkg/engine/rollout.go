package engine

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/yourusername/nardengine/internal/random"
	"github.com/yourusername/nardengine/pkg/nard"
)

// DefaultMaxPlies caps a single self-play game.
const DefaultMaxPlies = 5000

// MaxWorkers caps the goroutines a single rollout starts.
const MaxWorkers = 256

// RolloutOptions controls rollout execution
type RolloutOptions struct {
	Games       int          // Number of games to simulate (default 1000)
	Workers     int          // Number of parallel workers (0 = GOMAXPROCS, at most MaxWorkers)
	Seed        uint64       // RNG seed (0 = random)
	MaxPlies    int          // Truncate each game after N plies (0 = DefaultMaxPlies)
	FirstPlayer *nard.Player // Preset starting player (nil = first roll decides)
}

// RolloutProgress contains progress information during a rollout
type RolloutProgress struct {
	GamesCompleted int     // Number of games completed so far
	GamesTotal     int     // Total number of games
	Percent        float64 // Percentage complete (0-100)
	WhiteWinRate   float64 // Current share of finished games won by white
}

// ProgressCallback is called periodically during rollout with progress updates
type ProgressCallback func(progress RolloutProgress)

// RolloutResult contains the results of a rollout
type RolloutResult struct {
	Games      int // Games played (finished or truncated)
	Finished   int
	Unfinished int
	WhiteWins  int
	BlackWins  int

	// Share of finished games won by white, with its 95% confidence interval
	WhiteWinRate float64
	WinRateCI    float64

	// Share of finished games won by the player who moved first
	FirstPlayerWinRate float64

	MeanPlies   float64
	StdDevPlies float64
	MeanSkips   float64
	TotalPlies  int
	Elapsed     time.Duration
}

// partialResult holds results from a single worker batch
type partialResult struct {
	plies      []float64
	skips      []float64
	whiteWon   []float64 // 1 for a white win, 0 for a black win
	firstWon   []float64 // 1 when the first mover won
	unfinished int
	err        error
}

// DefaultRolloutOptions returns sensible defaults
func DefaultRolloutOptions() RolloutOptions {
	return RolloutOptions{
		Games:    1000,
		Workers:  0,
		Seed:     0,
		MaxPlies: DefaultMaxPlies,
	}
}

func (opts RolloutOptions) withDefaults() RolloutOptions {
	if opts.Games <= 0 {
		opts.Games = 1000
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Workers > MaxWorkers {
		opts.Workers = MaxWorkers
	}
	if opts.Workers > opts.Games {
		opts.Workers = opts.Games
	}
	if opts.Seed == 0 {
		opts.Seed = random.MustSeed()
	}
	if opts.MaxPlies <= 0 {
		opts.MaxPlies = DefaultMaxPlies
	}
	return opts
}

// Rollout plays random self-play games and aggregates the outcomes
func (e *Engine) Rollout(ctx context.Context, opts RolloutOptions) (*RolloutResult, error) {
	return e.RolloutWithProgress(ctx, opts, nil)
}

// RolloutWithProgress performs a rollout with periodic progress callbacks.
// The callback is called from the calling goroutine after each batch.
func (e *Engine) RolloutWithProgress(ctx context.Context, opts RolloutOptions, callback ProgressCallback) (*RolloutResult, error) {
	opts = opts.withDefaults()
	start := time.Now()

	e.log.Debug().
		Int("games", opts.Games).
		Int("workers", opts.Workers).
		Uint64("seed", opts.Seed).
		Msg("rollout started")

	// Report progress approximately 20 times during the rollout
	batchSize := opts.Games / 20
	if perWorker := opts.Games / opts.Workers; batchSize > perWorker {
		batchSize = perWorker
	}
	if batchSize < 1 {
		batchSize = 1
	}

	results := make(chan partialResult, opts.Workers*4)
	var wg sync.WaitGroup

	gamesPerWorker := opts.Games / opts.Workers
	extraGames := opts.Games % opts.Workers

	for i := 0; i < opts.Workers; i++ {
		games := gamesPerWorker
		if i < extraGames {
			games++
		}
		wg.Add(1)
		go func(games int, seed uint64) {
			defer wg.Done()
			e.rolloutWorker(ctx, opts, games, seed, batchSize, results)
		}(games, opts.Seed+uint64(i)*1000000)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	result, err := aggregateResults(results, opts.Games, callback)
	result.Elapsed = time.Since(start)
	if err != nil {
		return result, err
	}
	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("rollout interrupted after %d games: %w", result.Games, err)
	}

	e.log.Info().
		Int("games", result.Games).
		Int("white_wins", result.WhiteWins).
		Int("black_wins", result.BlackWins).
		Int("unfinished", result.Unfinished).
		Dur("elapsed", result.Elapsed).
		Msg("rollout finished")
	return result, nil
}

// rolloutWorker plays games and reports them in batches
func (e *Engine) rolloutWorker(ctx context.Context, opts RolloutOptions, games int, seed uint64, batchSize int, results chan<- partialResult) {
	src := nard.NewSource(seed)
	policy := NewRandomPolicy(src)

	gameOpts := []nard.Option{nard.WithSource(src)}
	if opts.FirstPlayer != nil {
		gameOpts = append(gameOpts, nard.WithFirstPlayer(*opts.FirstPlayer))
	}

	for remaining := games; remaining > 0; {
		batch := min(batchSize, remaining)

		var pr partialResult
		for i := 0; i < batch; i++ {
			rec, err := PlayOut(ctx, nard.NewGame(gameOpts...), policy, PlayOutOptions{MaxPlies: opts.MaxPlies})
			if err != nil {
				if ctx.Err() == nil {
					pr.err = err
				}
				results <- pr
				return
			}
			pr.add(rec)
		}

		results <- pr
		remaining -= batch
	}
}

func (pr *partialResult) add(rec GameRecord) {
	pr.plies = append(pr.plies, float64(rec.Plies))
	pr.skips = append(pr.skips, float64(rec.Skips))
	if !rec.Finished {
		pr.unfinished++
		return
	}
	pr.whiteWon = append(pr.whiteWon, boolToFloat(rec.Winner == nard.White))
	pr.firstWon = append(pr.firstWon, boolToFloat(rec.Winner == rec.FirstPlayer))
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// aggregateResults combines partial results and calls the progress callback
func aggregateResults(results <-chan partialResult, totalGames int, callback ProgressCallback) (*RolloutResult, error) {
	var (
		plies, skips       []float64
		whiteWon, firstWon []float64
		unfinished         int
		firstErr           error
	)

	for pr := range results {
		if pr.err != nil && firstErr == nil {
			firstErr = pr.err
		}
		plies = append(plies, pr.plies...)
		skips = append(skips, pr.skips...)
		whiteWon = append(whiteWon, pr.whiteWon...)
		firstWon = append(firstWon, pr.firstWon...)
		unfinished += pr.unfinished

		if callback != nil && len(plies) > 0 {
			callback(RolloutProgress{
				GamesCompleted: len(plies),
				GamesTotal:     totalGames,
				Percent:        100.0 * float64(len(plies)) / float64(totalGames),
				WhiteWinRate:   meanOrZero(whiteWon),
			})
		}
	}

	result := &RolloutResult{
		Games:      len(plies),
		Finished:   len(whiteWon),
		Unfinished: unfinished,
	}
	if result.Games == 0 {
		return result, firstErr
	}

	result.WhiteWins = int(floats.Sum(whiteWon))
	result.BlackWins = result.Finished - result.WhiteWins
	result.TotalPlies = int(floats.Sum(plies))
	result.MeanPlies, result.StdDevPlies = stat.MeanStdDev(plies, nil)
	if result.Games == 1 {
		result.StdDevPlies = 0
	}
	result.MeanSkips = stat.Mean(skips, nil)

	if n := len(whiteWon); n > 0 {
		result.WhiteWinRate = stat.Mean(whiteWon, nil)
		result.FirstPlayerWinRate = stat.Mean(firstWon, nil)
		if n > 1 {
			// 95% confidence interval = 1.96 * stdErr
			_, std := stat.MeanStdDev(whiteWon, nil)
			result.WinRateCI = 1.96 * stat.StdErr(std, float64(n))
		}
	}
	return result, firstErr
}

func meanOrZero(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return stat.Mean(x, nil)
}
