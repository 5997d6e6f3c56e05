// Package lower builds mir trees from cst source trees.
//
// Lowering is a single-threaded, session-owned pass. Statement lowering
// runs a visitor chain: registered visitors (the safety tag recognizer)
// get first refusal on every statement, and a declined statement falls
// through to the default lowering. Declining is normal control flow,
// never an error.
package lower
