// Package device holds the console's local mirror of OneNET devices.
//
// The Device Cache is a key/value collection of device records keyed by id.
// It is filled from device-list responses and persisted to a single named
// slot so the console can show the last known fleet after a restart.
//
// # Architecture
//
//	┌──────────────────────────────────────────────────────────┐
//	│                       Device Cache                        │
//	│                                                           │
//	│  ┌──────────────────┐      ┌───────────────────────────┐  │
//	│  │      Cache       │      │          Store            │  │
//	│  │    (cache.go)    │─────▶│ (store.go, sqlite_store)  │  │
//	│  │                  │      │                           │  │
//	│  │ • Load / Replace │      │ • MemoryStore (tests)     │  │
//	│  │ • Merge / Clear  │      │ • SQLiteStore (kv_slots)  │  │
//	│  │ • OnChange hooks │      └───────────────────────────┘  │
//	│  └──────────────────┘                                     │
//	└──────────────────────────────────────────────────────────┘
//
// # Invariants
//
//   - No two cached records share an id.
//   - Merge keeps first-seen order; a repeated id overwrites the payload in place.
//   - Every mutation writes the snapshot before it becomes visible.
//   - A missing or unparseable snapshot loads as an empty cache.
//
// # Validation
//
// validation.go holds the form-field rules shared by the v1 and v2 device
// forms (name, IMEI, IMSI, PSK, auth code, description, coordinates).
//
// # Usage
//
//	store := device.NewSQLiteStore(db.DB)
//	cache := device.NewCache(store, "devices")
//	devices, err := cache.Load(ctx)
//	...
//	err = cache.Merge(ctx, page.Devices)
package device
