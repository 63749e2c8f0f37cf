// Package config provides centralized configuration management for the TFC
// rounds dashboard. It handles loading configuration from multiple sources,
// validation, and a type-safe API for the rest of the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration file (YAML)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern TFC_* for namespacing:
//
//	TFC_SERVER_PORT=8080
//	TFC_SOURCE_PATH=data/metrics.xlsx
//	TFC_SOURCE_FORMAT=workbook
//	TFC_LOGGING_LEVEL=info
//
// KPI comparison directions and overview pins are maps and therefore come
// from the YAML file only:
//
//	kpi:
//	  directions:
//	    "ROI (%)": higher_is_better
//	    "Obsolete products (%)": lower_is_better
//	  overview:
//	    Sales: "ROI (%)"
//
// # Usage
//
// Load configuration at application startup:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
