package database

// ProgressReporter provides callbacks for reporting scan progress.
// Implementations can display progress bars, log messages, or remain
// silent. Callbacks are synchronous and side-effect-only: extraction
// results never depend on them.
type ProgressReporter interface {
	// OnDiscoveryStart is called when file discovery begins.
	OnDiscoveryStart()

	// OnDiscoveryComplete is called with the number of eligible files found.
	OnDiscoveryComplete(total int)

	// OnScanStart is called before files are processed.
	OnScanStart(total int)

	// OnFileScanned is called after each file is processed.
	OnFileScanned(path string)

	// OnScanComplete is called after all files in a pass are processed.
	OnScanComplete(files int)
}

// NoOpProgressReporter is a progress reporter that does nothing. Used
// when progress reporting is disabled.
type NoOpProgressReporter struct{}

func (NoOpProgressReporter) OnDiscoveryStart()             {}
func (NoOpProgressReporter) OnDiscoveryComplete(total int) {}
func (NoOpProgressReporter) OnScanStart(total int)         {}
func (NoOpProgressReporter) OnFileScanned(path string)     {}
func (NoOpProgressReporter) OnScanComplete(files int)      {}
