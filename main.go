package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/gdamore/tcell/v2"

	"gridsheet/internal/app"
	"gridsheet/internal/config"
	"gridsheet/internal/document"
	"gridsheet/internal/i18n"
)

func main() {
	configPath := flag.String("config", config.DefaultPath(), "path to the TOML config file")
	delim := flag.String("delim", "", `field delimiter, overrides the config (use "\t" for tab)`)
	locale := flag.String("locale", "", "message language (en, zh-cn)")
	logPath := flag.String("log", "", "append diagnostics to this file")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [file.csv]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := log.New(io.Discard, "", 0)
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logger = log.New(f, "gridsheet: ", log.LstdFlags|log.Lmicroseconds)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if *delim != "" {
		cfg.CSV.Delimiter = *delim
	}
	if *locale != "" {
		cfg.UI.Locale = *locale
	}
	opts, err := cfg.CodecOptions()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid csv options: %v\n", err)
		os.Exit(1)
	}
	logger.Printf("config %s: delimiter=%q history=%d", *configPath, opts.Delimiter, cfg.History.MaxSize)

	catalog, err := i18n.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot load messages: %v\n", err)
		os.Exit(1)
	}

	doc := document.New(
		document.WithCodecOptions(opts),
		document.WithHistorySize(cfg.History.MaxSize),
	)
	a := app.NewApp(doc, cfg, catalog)
	a.Log = logger
	if flag.NArg() > 0 {
		a.Open(flag.Arg(0))
	}

	// start tcell
	s, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot create screen: %v\n", err)
		os.Exit(1)
	}
	if err := s.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "cannot init screen: %v\n", err)
		os.Exit(1)
	}
	s.Clear()

	a.Run(s)
	s.Fini()

	if doc.Dirty() {
		logger.Printf("quit with unsaved changes")
	}
}
