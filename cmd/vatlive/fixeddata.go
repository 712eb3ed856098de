package main

import (
	"encoding/json"
	"fmt"
	"os"

	"vatlive/internal/config"
	"vatlive/internal/fixed"
)

// vatspyCache is the on-disk JSON shape the (out-of-scope, externally
// run) GeoJSON/TSV/CSV parsers are expected to produce once and cache —
// this module only ever reads it back.
type vatspyCache struct {
	Airports []*fixed.Airport `json:"airports"`
	FIRs     []*fixed.FIR     `json:"firs"`
}

// loadFixedData builds a fixed.Store from the cache paths in cfg. Any
// cache path left empty, or pointing at a file that doesn't exist yet, is
// skipped rather than treated as an error — a fresh deployment can start
// with an empty store and fill it in on the next external-parser run.
func loadFixedData(cfg config.FixedConfig) (*fixed.Store, error) {
	var aircraftModels []*fixed.Aircraft
	if err := loadJSONIfExists(cfg.AircraftDBPath, &aircraftModels); err != nil {
		return nil, fmt.Errorf("load aircraft db: %w", err)
	}
	store := fixed.NewStore(fixed.NewAircraftTable(aircraftModels))

	var countries []*fixed.Country
	if err := loadJSONIfExists(cfg.CountriesCachePath, &countries); err != nil {
		return nil, fmt.Errorf("load countries: %w", err)
	}
	store.LoadCountries(countries)

	var shapes []*fixed.Shape
	if err := loadJSONIfExists(cfg.ShapesCachePath, &shapes); err != nil {
		return nil, fmt.Errorf("load shapes: %w", err)
	}
	store.LoadShapes(shapes)

	var vatspy vatspyCache
	if err := loadJSONIfExists(cfg.VATSpyCachePath, &vatspy); err != nil {
		return nil, fmt.Errorf("load vatspy cache: %w", err)
	}

	if cfg.RunwaysCachePath != "" {
		var runways map[string][]*fixed.Runway
		if err := loadJSONIfExists(cfg.RunwaysCachePath, &runways); err != nil {
			return nil, fmt.Errorf("load runways: %w", err)
		}
		for _, a := range vatspy.Airports {
			if rws, ok := runways[a.ICAO]; ok {
				a.Runways = make(map[string]*fixed.Runway, len(rws))
				for _, rw := range rws {
					a.Runways[rw.Ident] = rw
				}
			}
		}
	}

	store.LoadAirports(vatspy.Airports)
	store.LoadFIRs(vatspy.FIRs)
	return store, nil
}

// loadJSONIfExists decodes path into v, leaving v untouched when path is
// empty or the file is absent.
func loadJSONIfExists(path string, v any) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, v)
}
