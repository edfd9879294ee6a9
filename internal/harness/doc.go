// Package harness runs YAML visitor scenarios against the tracker and
// criteria engine.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	criteria: criteria/basic.json   # relative to the scenario file
//	consent: true                   # default true
//	event_threshold: 100            # default 100
//	user_id: visitor-1              # id given to a promoted visitor
//	steps:
//	  - action: track
//	    name: button-clicked
//	    data_fields: { lastPageViewed: "signup page" }
//	    expect: { match: "48" }
//	  - action: purchase
//	    total: 14.01
//	    items:
//	      - { id: "1", name: keyboard, price: 4.67, quantity: 3 }
//	  - action: update_user
//	    fields: { country: UK }
//	    expect: { no_match: true }
//	assertions:
//	  - type: matched
//	    criteria_id: "48"
//	  - type: event_count
//	    event_type: customEvent
//	    count: 1
//
// # Step Actions
//
//   - track: custom event (name, data_fields)
//   - purchase: purchase event (total, items, data_fields)
//   - update_cart: cart update (items)
//   - token_registration: push token (token)
//   - update_user: merge user fields (fields)
//   - consent: set tracking consent (consent)
//   - fetch: replace the cached criteria document (criteria)
//   - evaluate: evaluate without tracking anything
//
// # Assertion Types
//
//   - matched: the visitor was promoted by criteria_id
//   - no_match: the visitor was not promoted
//   - event_count: the evaluated list holds count events (of event_type)
//   - event_contains: some evaluated event of event_type has fields
//
// # Deterministic Testing
//
// All scenarios execute with a deterministic wall clock
// (testutil.DeterministicClock), a fixed visitor id
// (testutil.StaticIDGenerator), and an in-memory SQLite database, so
// repeated runs produce byte-identical snapshots for golden comparison.
package harness
