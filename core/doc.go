// Package core defines the canonical data model shared by every Argus
// component: normalized security events, detection alerts, and derived
// risk snapshots. Types in this package carry no behavior beyond
// validation and classification helpers; all stateful logic lives in
// the ingest, detect, and storage packages.
package core
