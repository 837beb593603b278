// Command cardparse converts a raw deck, one "easy hard words" line per card,
// into the JSON deck format. With -dsn it also seeds the cards table.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/DoyleJ11/pfn-backend/internal/cards"
)

func main() {
	in := flag.String("in", "cards.txt", "raw card file")
	out := flag.String("out", "cards.json", "JSON deck to write, - for stdout")
	dsn := flag.String("dsn", "", "postgres DSN to seed (optional)")
	flag.Parse()

	f, err := os.Open(*in)
	if err != nil {
		log.Fatalf("failed to open %s: %v", *in, err)
	}
	defer f.Close()

	deck, err := cards.ParseRaw(f)
	if err != nil {
		log.Fatalf("failed to parse %s: %v", *in, err)
	}

	data, err := json.MarshalIndent(deck, "", "  ")
	if err != nil {
		log.Fatalf("failed to encode deck: %v", err)
	}
	if *out == "-" {
		_, err = os.Stdout.Write(append(data, '\n'))
	} else {
		err = os.WriteFile(*out, data, 0o644)
	}
	if err != nil {
		log.Fatalf("failed to write deck: %v", err)
	}
	log.Printf("wrote %d cards", len(deck))

	if *dsn == "" {
		return
	}
	db, err := cards.OpenDB(*dsn)
	if err != nil {
		log.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := cards.Seed(ctx, db, deck); err != nil {
		log.Fatal(err)
	}
	log.Printf("seeded card table")
}
