// Package heatmap is an embeddable interaction-telemetry SDK.
//
// It classifies raw pointer samples into taps, scrolls and swipes, buffers
// them in a local SQLite queue and uploads them in batches to an ingest
// service. Rows are deleted only after the service confirms a batch.
//
// Quick start:
//
//	sdk, err := heatmap.New("https://ingest.example.com", heatmap.WithDatabasePath("heatmap.db"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sdk.Close()
//
//	sdk.Attach("Home")
//	sdk.HandleSample(heatmap.Sample{Action: heatmap.ActionDown, X: 100, Y: 200, Time: time.Now()})
//	sdk.HandleSample(heatmap.Sample{Action: heatmap.ActionUp, X: 100, Y: 200, Time: time.Now()})
//	sdk.Identify("user-1", "token") // also triggers a flush
//
// An SDK is safe for concurrent use. Create one per process and Close it on
// shutdown; every method returns ErrNotInitialized afterwards.
package heatmap
