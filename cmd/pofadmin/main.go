// pofadmin seeds the catalog and manages dashboard accounts. It talks to the
// same database as the core service and is meant to run on the same host.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"pofcore/config"
	"pofcore/store"
)

func main() {
	configPath := flag.String("config", "pofcore.yaml", "path to config file")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	db, err := store.Open(&cfg.Database)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	switch args[0] {
	case "seed":
		if err := seedCatalog(db); err != nil {
			log.Fatalf("seed: %v", err)
		}
	case "create-admin":
		if len(args) != 3 {
			fmt.Fprintln(os.Stderr, "usage: pofadmin create-admin <username> <password>")
			os.Exit(2)
		}
		if err := db.CreateAdminUser(args[1], args[2]); err != nil {
			log.Fatalf("create admin: %v", err)
		}
		log.Printf("pofadmin: created admin user %s", args[1])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: pofadmin [-config pofcore.yaml] <command>

commands:
  seed                              seed stations and machines
  create-admin <username> <pass>    create a dashboard admin account`)
}

type seedMachine struct {
	station int
	code    string
	speed   int
}

// seedCatalog loads the plant layout: four stations with their slitting,
// printing, folding and cutting machines. Idempotent only on an empty catalog.
func seedCatalog(db *store.DB) error {
	existing, err := db.ListStations()
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return fmt.Errorf("catalog already seeded (%d stations)", len(existing))
	}

	stations := []*store.Station{
		{Code: "S1", Name: "Slitting / Rewinding"},
		{Code: "S2", Name: "Printing"},
		{Code: "S3", Name: "Folding"},
		{Code: "S4", Name: "Final Cutting / Die Cutting"},
	}
	for _, s := range stations {
		if err := db.CreateStation(s); err != nil {
			return fmt.Errorf("station %s: %w", s.Code, err)
		}
	}

	machines := []seedMachine{
		{0, "SL-01", 100}, {0, "SL-02", 100}, {0, "RW-01", 90}, {0, "SL-03", 100}, {0, "RW-02", 95},
		{1, "PR-01", 80}, {1, "PR-02", 80}, {1, "PR-03", 75}, {1, "PR-04", 85}, {1, "PR-05", 80},
		{2, "FD-01", 120}, {2, "FD-02", 120}, {2, "FD-03", 115}, {2, "FD-04", 120},
		{3, "CT-01", 100}, {3, "DC-01", 110}, {3, "DC-02", 110}, {3, "DC-03", 115}, {3, "CT-02", 105},
	}
	for _, m := range machines {
		machine := &store.Machine{
			StationID:     stations[m.station].ID,
			Code:          m.code,
			StandardSpeed: m.speed,
			Status:        store.MachineIdle,
		}
		if err := db.CreateMachine(machine); err != nil {
			return fmt.Errorf("machine %s: %w", m.code, err)
		}
	}

	log.Printf("pofadmin: seeded %d stations, %d machines", len(stations), len(machines))
	return nil
}
