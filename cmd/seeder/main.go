// Command seeder serves a synthetic material catalog over HTTP so the
// ingestion pipeline can run without access to the real warehouse API.
// Point API_URL at http://localhost:5050/materials.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/palletic/warevec/core"
)

var nouns = []string{
	"Deep groove ball bearing",
	"Tapered roller bearing",
	"V-belt",
	"Timing belt",
	"Flat gasket",
	"O-ring seal",
	"Solenoid valve",
	"Proximity sensor",
	"Photoelectric sensor",
	"Hydraulic hose",
	"Pneumatic cylinder",
	"Grease cartridge",
	"Cutting oil",
	"Weld wire spool",
	"Hex bolt",
	"Lock washer",
	"Conveyor roller",
	"Drive chain",
	"Sprocket wheel",
	"Motor coupling",
	"Contactor relay",
	"Thermal fuse",
	"Limit switch",
	"Air filter element",
	"Oil filter cartridge",
	"Shaft key",
	"Retaining ring",
	"Gear pump",
	"Pressure gauge",
	"Safety coupling",
}

var specs = []string{
	"6204-2RS C3",
	"stainless DIN 933 M8x30",
	"NBR 70 shore",
	"24VDC 2/2 way",
	"M18 PNP NO",
	"ISO VG 46",
	"SK 1.2mm ER70S-6",
	"type A section 13x1250",
	"bore 25mm keyed",
	"10 bar rated",
	"400g NLGI 2",
	"G1/4 brass body",
}

var categories = []string{
	"Spare Part",
	"Consumable",
	"Electrical",
	"Mechanical",
	"Tooling",
}

var suppliers = []string{
	"SKF Distribution",
	"Bosch Rexroth",
	"Festo Supply",
	"Henkel Industrial",
	"Local Hardware Co",
	"Omron Trading",
}

var storages = []string{
	"Central Store",
	"Line Store A",
	"Line Store B",
	"Chemical Cabinet",
}

var uoms = []string{"PC", "SET", "L", "KG", "M"}

var (
	listenAddr = flag.String("listen", ":5050", "address to serve the fixture catalog on")
	srcFile    = flag.String("src", "", "JSON file of material records to serve instead of generated data")
	count      = flag.Int("count", 120, "number of generated materials")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// recordsFromFile loads a JSON array of material records.
func recordsFromFile(filename string) ([]core.MaterialRecord, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []core.MaterialRecord
	if err := json.NewDecoder(f).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filename, err)
	}
	return records, nil
}

// buildCatalog generates a deterministic set of plausible records. Every
// seventh record carries no numeric id, matching the dirty rows the real
// catalog produces, so downstream id derivation gets exercised too.
func buildCatalog(n int) []core.MaterialRecord {
	records := make([]core.MaterialRecord, 0, n)
	for i := 0; i < n; i++ {
		rec := core.MaterialRecord{
			ID:              int64(1000 + i),
			MaterialNo:      fmt.Sprintf("MAT-%05d", i+1),
			Description:     nouns[i%len(nouns)] + " " + specs[i%len(specs)],
			Category:        categories[i%len(categories)],
			Type:            "Indirect",
			AddressRackName: fmt.Sprintf("%c-%02d", 'A'+i%4, 1+i%18),
			StorageName:     storages[i%len(storages)],
			Plant:           "P1",
			Warehouse:       fmt.Sprintf("WH-%d", 1+i%2),
			Supplier:        suppliers[i%len(suppliers)],
			UOM:             uoms[i%len(uoms)],
			MRPType:         "Reorder Point",
			StockStatus:     "In Stock",
		}
		if i%7 == 0 {
			rec.ID = 0
		}
		if i%3 != 0 {
			rec.Price = f64(float64((i*37)%900+100) / 10)
			rec.Stock = f64(float64((i * 13) % 250))
			rec.MinStock = f64(float64(5 + i%20))
		}
		records = append(records, rec)
	}
	return records
}

func f64(v float64) *float64 {
	return &v
}

func main() {
	var (
		records []core.MaterialRecord
		err     error
	)
	if *srcFile != "" {
		records, err = recordsFromFile(*srcFile)
		if err != nil {
			slog.Error("failed to load records", "file", *srcFile, "err", err)
			os.Exit(1)
		}
	} else {
		records = buildCatalog(*count)
	}

	http.HandleFunc("/materials", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			slog.Error("failed to write catalog", "err", err)
			return
		}
		slog.Info("served catalog", "count", len(records), "remote", r.RemoteAddr)
	})

	slog.Info("fixture catalog listening", "addr", *listenAddr, "materials", len(records))
	if err := http.ListenAndServe(*listenAddr, nil); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
