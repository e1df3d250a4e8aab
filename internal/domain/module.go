package domain

import "fmt"

// Module identifies which of the three record shapes an upload carries.
type Module string

const (
	ModuleSpecialDrives Module = "SpecialDrives"
	ModuleConvictions   Module = "Convictions"
	ModuleDetections    Module = "Detections"
)

// Modules lists every supported module in declaration order.
var Modules = []Module{ModuleSpecialDrives, ModuleConvictions, ModuleDetections}

// ParseModule validates a caller supplied module name.
func ParseModule(raw string) (Module, error) {
	for _, m := range Modules {
		if string(m) == raw {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown module %q", raw)
}

// ImportSource tags where an upload originated.
type ImportSource string

const (
	SourceCCTNSSpecialDrives ImportSource = "CCTNS_SpecialDrives"
	SourceCCTNSConvictions   ImportSource = "CCTNS_Convictions"
	SourceCCTNSDetections    ImportSource = "CCTNS_Detections"
	SourceManual             ImportSource = "Manual"
	SourceExcel              ImportSource = "Excel"
	SourceCSV                ImportSource = "CSV"
	SourcePDF                ImportSource = "PDF"
)

var importSources = []ImportSource{
	SourceCCTNSSpecialDrives,
	SourceCCTNSConvictions,
	SourceCCTNSDetections,
	SourceManual,
	SourceExcel,
	SourceCSV,
	SourcePDF,
}

// ParseImportSource validates a caller supplied source tag.
func ParseImportSource(raw string) (ImportSource, error) {
	for _, s := range importSources {
		if string(s) == raw {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown import source %q", raw)
}
