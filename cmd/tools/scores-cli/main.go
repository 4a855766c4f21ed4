package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/annel0/maze-chase/internal/config"
	"github.com/annel0/maze-chase/internal/replay"
	"github.com/annel0/maze-chase/internal/score"
)

const timeFormat = "2006-01-02 15:04:05"

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config (defaults to $MAZE_CONFIG)")
		command    = flag.String("cmd", "top", "Command: top, best, replay")
		limit      = flag.Int("limit", 10, "Maximum number of entries for top")
		name       = flag.String("name", "", "Player name for best")
		file       = flag.String("file", "", "Replay file for replay")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Scores.Timeout()*3)
	defer cancel()

	switch *command {
	case "top":
		err = showTop(ctx, cfg.Scores, *limit)
	case "best":
		err = showBest(ctx, cfg.Scores, *name)
	case "replay":
		err = playReplay(*file)
	default:
		fmt.Printf("❌ Unknown command: %s\n", *command)
		fmt.Println("Available commands: top, best, replay")
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("❌ %s failed: %v", *command, err)
	}
}

// showTop печатает таблицу рекордов
func showTop(ctx context.Context, cfg config.ScoresConfig, limit int) error {
	store, err := score.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Top(ctx, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("📭 No scores yet")
		return nil
	}

	fmt.Printf("🏆 Top %d (%s)\n", len(entries), cfg.GetBackend())
	fmt.Println("────────────────────────────────────────")
	for i, e := range entries {
		fmt.Printf("%3d. %-12s %8d  %s\n", i+1, e.Name, e.Score, e.RecordedAt.Local().Format(timeFormat))
	}
	return nil
}

// showBest печатает лучший счёт одного игрока
func showBest(ctx context.Context, cfg config.ScoresConfig, name string) error {
	if name == "" {
		return errors.New("-name is required")
	}
	store, err := score.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	e, err := store.Best(ctx, score.NormalizeName(name))
	if errors.Is(err, score.ErrNotFound) {
		fmt.Printf("📭 %s has no scores\n", name)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Printf("🏆 %s: %d (%s)\n", e.Name, e.Score, e.RecordedAt.Local().Format(timeFormat))
	return nil
}

// playReplay воспроизводит запись и сверяет результат
func playReplay(path string) error {
	if path == "" {
		return errors.New("-file is required")
	}
	rec, err := replay.LoadFile(path)
	if err != nil {
		return err
	}

	fmt.Printf("🎬 Replay %s: player %s, seed %d, %d ticks, %d inputs\n",
		rec.ID, rec.PlayerName, rec.Seed, rec.Ticks, len(rec.Inputs))

	snap, err := replay.Verify(rec)
	if err != nil {
		return err
	}

	result := "lost"
	if snap.Won {
		result = "won"
	} else if !snap.Over() {
		result = "aborted"
	}
	fmt.Printf("✅ Replayed: %s, score %d, lives %d, frames %d\n", result, snap.Score, snap.Lives, snap.Frame)
	fmt.Println(snap.Grid.String())
	return nil
}
