// Package harness runs scripted scenarios against a record store and
// compares the resulting traces with golden files.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: add_and_list
//	description: "Adding a commitment makes it visible in the listing"
//	seed: seeds/escrows.yaml   # optional, relative to the scenario file
//	backend: sqlite            # optional, defaults to memory
//	steps:
//	  - add: commitment
//	    data: { amount: 100 }
//	    expect: { id: commitment-0001, amount: 100 }
//	  - list: commitment
//	    expect_count: 1
//	  - get_escrow: nonexistent-id
//	    expect_found: false
//	assertions:
//	  - type: record_count
//	    kind: commitment
//	    count: 1
//
// Each step performs exactly one store operation. Expectations on a step
// are checked immediately; assertions are checked once all steps ran.
//
// # Assertion Types
//
//   - trace_contains: an event with the given op and kind exists, and its
//     record contains the given fields
//   - trace_order: the listed record ids were added in this order
//   - trace_count: the op ran exactly N times for the kind
//   - record_count: the kind's collection holds exactly N records
//   - final_state: the record with the given id holds the given fields
//
// # Deterministic Testing
//
// Added records get ids from testutil.SequentialIDs, one generator per
// kind ("commitment-0001", "sealed_order-0001", ...). Records added by the
// seed use the "seed" prefix. Traces are serialized as canonical JSON, so
// the same scenario produces the same bytes on every backend.
package harness
