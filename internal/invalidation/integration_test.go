package invalidation_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/IBM/sarama"

	"github.com/MTES-MCT/envergo/internal/geo"
	"github.com/MTES-MCT/envergo/internal/geostore"
	"github.com/MTES-MCT/envergo/internal/geostore/memstore"
	"github.com/MTES-MCT/envergo/internal/invalidation"
	"github.com/MTES-MCT/envergo/internal/invalidation/kafkaconsumer"
)

// one wetland map with a small square around (-1.55, 47.21)
const wetlandDoc = `{
	"id": 7,
	"name": "Zones humides test",
	"map_type": "zone_humide",
	"certainty": "certain",
	"display_for_user": true,
	"departments": ["44"],
	"zones": [{
		"id": 1,
		"area_m2": 12000,
		"geometry": {
			"type": "Polygon",
			"coordinates": [[[-1.551,47.209],[-1.549,47.209],[-1.549,47.211],[-1.551,47.211],[-1.551,47.209]]]
		}
	}]
}`

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("write doc: %v", err)
	}
}

func eventMessage(t *testing.T, ev invalidation.Event) *sarama.ConsumerMessage {
	t.Helper()
	raw, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return &sarama.ConsumerMessage{Topic: "envergo-refdata", Value: raw}
}

func TestProcessOne_ReloadsSnapshotFromDisk(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "zone_humide_44.json", wetlandDoc)

	store := memstore.New()
	reloader := &invalidation.StoreReloader{Store: store, DataDir: dir}
	consumer := kafkaconsumer.New(
		kafkaconsumer.NewConfig("localhost:9092", "", ""),
		slog.New(slog.DiscardHandler),
		reloader,
	)

	ev := invalidation.Event{
		Version: 1, Op: "import", MapType: "zone_humide",
		Department: "44", TS: time.Now().UTC(),
	}
	if err := consumer.ProcessOne(context.Background(), eventMessage(t, ev)); err != nil {
		t.Fatalf("ProcessOne: %v", err)
	}

	p := geo.Point{Lng: -1.55, Lat: 47.21}
	zones, err := store.ZonesContaining(context.Background(), p, geostore.MapTypeWetland, geostore.CertaintyCertain)
	if err != nil {
		t.Fatalf("ZonesContaining: %v", err)
	}
	if len(zones) != 1 {
		t.Fatalf("zones=%d want 1", len(zones))
	}
	if zones[0].Map == nil || zones[0].Map.Name != "Zones humides test" {
		t.Errorf("zone map metadata not carried through reload")
	}
}

func TestProcessOne_SkipsInvalidEventWithoutError(t *testing.T) {
	store := memstore.New()
	reloader := &invalidation.StoreReloader{Store: store, DataDir: t.TempDir()}
	consumer := kafkaconsumer.New(
		kafkaconsumer.NewConfig("localhost:9092", "", ""),
		slog.New(slog.DiscardHandler),
		reloader,
	)

	ev := invalidation.Event{Version: 1, Op: "vacuum", MapType: "zone_humide", TS: time.Now()}
	if err := consumer.ProcessOne(context.Background(), eventMessage(t, ev)); err != nil {
		t.Fatalf("invalid events must be skipped, got %v", err)
	}
}

func TestProcessOne_BadPayloadFails(t *testing.T) {
	consumer := kafkaconsumer.New(
		kafkaconsumer.NewConfig("localhost:9092", "", ""),
		slog.New(slog.DiscardHandler),
		&invalidation.StoreReloader{Store: memstore.New(), DataDir: t.TempDir()},
	)
	msg := &sarama.ConsumerMessage{Topic: "envergo-refdata", Value: []byte("{not json")}
	if err := consumer.ProcessOne(context.Background(), msg); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestStoreReloader_BadDocumentSurfacesError(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "broken.json", `{"map_type":""}`)

	reloader := &invalidation.StoreReloader{Store: memstore.New(), DataDir: dir}
	ev := invalidation.Event{Version: 1, Op: "import", MapType: "haie", TS: time.Now()}
	if err := reloader.Reload(context.Background(), ev); err == nil {
		t.Fatalf("expected load error for broken document")
	}
}
