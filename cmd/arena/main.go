package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/Garsondee/robot-arena/internal/arena"
	"github.com/Garsondee/robot-arena/internal/game"
	"github.com/Garsondee/robot-arena/internal/vizserver"
	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	cfg := arena.DefaultConfig()
	var (
		seed     int64
		load     string
		savePath string
		httpAddr string
		demo     bool
	)
	flag.Float64Var(&cfg.Width, "width", cfg.Width, "arena width")
	flag.Float64Var(&cfg.Height, "height", cfg.Height, "arena height")
	flag.Int64Var(&seed, "seed", 0, "RNG seed (0 = time based)")
	flag.StringVar(&load, "load", "", "arena file to load at start")
	flag.StringVar(&savePath, "file", arena.DefaultArenaFile, "file used by F5 save and F9 load")
	flag.StringVar(&httpAddr, "http", "", "also serve the viz API on this address")
	flag.BoolVar(&demo, "demo", true, "start with one robot and obstacle of each kind")
	flag.Parse()
	if seed != 0 {
		cfg.Seed = seed
	}

	a := arena.New(cfg)
	g, runner := game.NewWithPanel(a, savePath)
	switch {
	case load != "":
		if err := a.LoadFile(load); err != nil {
			log.Fatal(err)
		}
	case demo:
		if err := a.PopulateDemo(); err != nil {
			log.Fatal(err)
		}
	}

	if httpAddr != "" {
		svc := vizserver.NewService(httpAddr, runner, os.Stdout)
		go func() {
			if err := svc.ListenAndServe(context.Background()); err != nil {
				log.Println(err)
			}
		}()
	}

	w, h := g.WindowSize()
	ebiten.SetWindowTitle("Robot Arena")
	ebiten.SetWindowSize(w, h)
	ebiten.SetTPS(int(time.Second / cfg.TickDuration))
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}
