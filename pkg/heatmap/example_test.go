package heatmap_test

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"time"

	"github.com/Vince095/HeatmapSDK/pkg/heatmap"
)

func Example() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	dir, err := os.MkdirTemp("", "heatmap-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	sdk, err := heatmap.New(srv.URL,
		heatmap.WithDatabasePath(filepath.Join(dir, "heatmap.db")),
		heatmap.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer sdk.Close()

	now := time.Now()
	sdk.Attach("Home")
	sdk.HandleSample(heatmap.Sample{Action: heatmap.ActionDown, X: 100, Y: 200, Time: now})
	sdk.HandleSample(heatmap.Sample{Action: heatmap.ActionUp, X: 100, Y: 200, Time: now.Add(40 * time.Millisecond)})

	ctx := context.Background()
	data, err := sdk.RequestHeatmap(ctx, "Home")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("points:", len(data.Points()))

	res, err := sdk.FlushWait(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("uploaded:", res.Events)
	// Output:
	// points: 1
	// uploaded: 1
}
