// Package inventory talks to the ERPNext inventory service.
//
// Client looks up items through the REST resource API and downloads item
// photos. CachedItemSource keeps recent lookups in a Cache so repeated runs
// for the same codes do not hit the service again.
package inventory
