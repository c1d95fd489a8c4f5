// nard - Nard (long backgammon) rules engine command line
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yourusername/nardengine/internal/logging"
	"github.com/yourusername/nardengine/internal/random"
	"github.com/yourusername/nardengine/pkg/engine"
	"github.com/yourusername/nardengine/pkg/nard"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "play":
		cmdPlay(args)
	case "moves":
		cmdMoves(args)
	case "rollout":
		cmdRollout(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`nard - Nard (long backgammon) rules engine

Usage: nard <command> [options]

Commands:
  play      Play a random self-play game and print every move
  moves     List the legal moves of a position
  rollout   Play many random games and report statistics

Use "nard <command> -h" for command-specific help.

Position Format:
  24 comma-separated slot values, white positive and black negative,
  optionally followed by ":whiteOff:blackOff". Slot 1 holds white's
  starting stack, slot 13 black's.
  Example: "15,0,0,0,0,0,0,0,0,0,0,0,-15,0,0,0,0,0,0,0,0,0,0,0"`)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func parseFirstPlayer(s string) (*nard.Player, error) {
	if s == "" {
		return nil, nil
	}
	p, err := nard.ParsePlayer(s)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func cmdPlay(args []string) {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	seed := fs.Uint64("seed", 0, "Random seed (0 = random)")
	first := fs.String("first", "", "Preset first player: white or black (default: first roll)")
	quiet := fs.Bool("quiet", false, "Only print the result")
	maxPlies := fs.Int("max-plies", engine.DefaultMaxPlies, "Stop after N plies (0 = no limit)")
	fs.Parse(args)

	if *seed == 0 {
		*seed = random.MustSeed()
	}
	firstPlayer, err := parseFirstPlayer(*first)
	if err != nil {
		fatal(err)
	}

	src := nard.NewSource(*seed)
	opts := []nard.Option{nard.WithSource(src)}
	if firstPlayer != nil {
		opts = append(opts, nard.WithFirstPlayer(*firstPlayer))
	}
	g := nard.NewGame(opts...)

	if g.State() == nard.FirstRoll {
		p, err := g.FirstRoll()
		if err != nil {
			fatal(err)
		}
		if !*quiet {
			fmt.Printf("%s wins the first roll with %v\n", p, g.Dice())
		}
	}
	if !*quiet {
		fmt.Printf("Seed %d\n\n%s\n", *seed, nard.FormatBoard(g.Board(), g.Dice()))
	}

	observer := func(ply int, mover nard.Player, move *nard.Move, g *nard.Game) {
		if move == nil {
			fmt.Printf("%4d. %s cannot move\n", ply, mover)
			return
		}
		fmt.Printf("%4d. %s %s\n", ply, mover, engine.FormatMove(*move))
		fmt.Println(nard.FormatBoard(g.Board(), g.Dice()))
	}
	playOpts := engine.PlayOutOptions{MaxPlies: *maxPlies}
	if !*quiet {
		playOpts.Observer = observer
	}

	rec, err := engine.PlayOut(context.Background(), g, engine.NewRandomPolicy(src), playOpts)
	if err != nil {
		fatal(err)
	}

	if !rec.Finished {
		fmt.Printf("Stopped after %d plies without a winner\n", rec.Plies)
		return
	}
	fmt.Printf("%s wins after %d plies (%d moves, %d skips)\n", rec.Winner, rec.Plies, rec.Moves, rec.Skips)
}

func cmdMoves(args []string) {
	fs := flag.NewFlagSet("moves", flag.ExitOnError)
	posFlag := fs.String("position", "", "Position (default: starting position)")
	posShort := fs.String("p", "", "Position (short form)")
	player := fs.String("player", "white", "Player to move: white or black")
	diceFlag := fs.String("dice", "", "Dice roll, e.g. 3,1 or 5-5")
	moveFlag := fs.String("move", "", "Check a single move, e.g. 1/4 or 19/off")
	showBoard := fs.Bool("board", false, "Print the board")
	fs.Parse(args)

	if *diceFlag == "" {
		fmt.Fprintln(os.Stderr, "Error: dice required")
		fmt.Fprintln(os.Stderr, "Usage: nard moves [-position <slots>] [-player white|black] -dice 3,1")
		os.Exit(1)
	}

	pos := engine.StartingPosition()
	posStr := *posFlag
	if posStr == "" {
		posStr = *posShort
	}
	if posStr != "" {
		var err error
		if pos, err = engine.ParsePosition(posStr); err != nil {
			fatal(err)
		}
	}

	p, err := nard.ParsePlayer(*player)
	if err != nil {
		fatal(err)
	}
	dice, err := engine.ParseDice(*diceFlag)
	if err != nil {
		fatal(err)
	}

	e := engine.NewEngine(engine.EngineOptions{CacheSize: -1})
	analysis, err := e.AnalyzePosition(pos, p, dice)
	if err != nil {
		fatal(err)
	}

	if *showBoard {
		board, err := nard.NewBoardFromPosition(pos)
		if err != nil {
			fatal(err)
		}
		fmt.Println(nard.FormatBoard(board, dice))
	}

	if *moveFlag != "" {
		m, err := engine.ParseMove(*moveFlag)
		if err != nil {
			fatal(err)
		}
		legal, err := e.IsLegal(pos, p, dice, m)
		if err != nil {
			fatal(err)
		}
		if !legal {
			fmt.Printf("%s is not legal for %s with %v\n", engine.FormatMove(m), p, dice)
			os.Exit(2)
		}
		fmt.Printf("%s is legal for %s with %v\n", engine.FormatMove(m), p, dice)
		return
	}

	fmt.Printf("Legal moves for %s with %v (%d):\n", p, dice, analysis.NumMoves)
	for i, m := range analysis.Moves {
		fmt.Printf("  %2d. %s\n", i+1, engine.FormatMove(m))
	}
	if analysis.NumMoves == 0 {
		fmt.Println("  none: the turn must be skipped")
	}
	if analysis.OffPossible {
		fmt.Println("All checkers are home; bearing off is allowed")
	}
}

func cmdRollout(args []string) {
	fs := flag.NewFlagSet("rollout", flag.ExitOnError)
	games := fs.Int("games", 1000, "Number of games to simulate")
	workers := fs.Int("workers", 0, "Number of worker goroutines (0 = auto)")
	seed := fs.Uint64("seed", 0, "Random seed (0 = random)")
	maxPlies := fs.Int("max-plies", engine.DefaultMaxPlies, "Truncate each game at N plies")
	first := fs.String("first", "", "Preset first player: white or black (default: first roll)")
	progress := fs.Bool("progress", false, "Print progress to stderr")
	logLevel := fs.String("log-level", "warn", "Log level (debug, info, warn, error)")
	fs.Parse(args)

	logger, err := logging.Setup(*logLevel, true)
	if err != nil {
		fatal(err)
	}
	firstPlayer, err := parseFirstPlayer(*first)
	if err != nil {
		fatal(err)
	}
	if *seed == 0 {
		*seed = random.MustSeed()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e := engine.NewEngine(engine.EngineOptions{Logger: &logger})
	opts := engine.RolloutOptions{
		Games:       *games,
		Workers:     *workers,
		Seed:        *seed,
		MaxPlies:    *maxPlies,
		FirstPlayer: firstPlayer,
	}

	var callback engine.ProgressCallback
	if *progress {
		callback = func(p engine.RolloutProgress) {
			fmt.Fprintf(os.Stderr, "\r%5.1f%% %d/%d games, white %.1f%%",
				p.Percent, p.GamesCompleted, p.GamesTotal, p.WhiteWinRate*100)
		}
	}

	result, err := e.RolloutWithProgress(ctx, opts, callback)
	if *progress {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		if result == nil || result.Games == 0 {
			fatal(err)
		}
		log.Warn().Err(err).Msg("rollout interrupted, showing partial results")
	}

	printRollout(result, *seed)
}

func printRollout(r *engine.RolloutResult, seed uint64) {
	var b strings.Builder
	fmt.Fprintf(&b, "Rollout (%d games, seed %d, %.1fs):\n", r.Games, seed, r.Elapsed.Round(100*time.Millisecond).Seconds())
	fmt.Fprintf(&b, "  White wins:   %d (%.1f%% ± %.1f%%)\n", r.WhiteWins, r.WhiteWinRate*100, r.WinRateCI*100)
	fmt.Fprintf(&b, "  Black wins:   %d\n", r.BlackWins)
	fmt.Fprintf(&b, "  First mover:  %.1f%% of finished games\n", r.FirstPlayerWinRate*100)
	if r.Unfinished > 0 {
		fmt.Fprintf(&b, "  Unfinished:   %d\n", r.Unfinished)
	}
	fmt.Fprintf(&b, "  Plies/game:   %.1f ± %.1f\n", r.MeanPlies, r.StdDevPlies)
	fmt.Fprintf(&b, "  Skips/game:   %.2f\n", r.MeanSkips)
	fmt.Print(b.String())
}
