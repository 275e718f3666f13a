// Package profile maintains running behavioral hypervectors.
//
// An Accumulator keeps one profile per configured dimension (by default a
// 10 000-dimension profile for cheap wire transfer and a 100 000-dimension
// profile for retrieval). Every event is folded into all of them:
//
//	profile[d] = Bundle(profile[d], Bind(codebook(kind, d), codebook(item, d)))
//
// Profiles are never decayed or normalized between events, so their
// magnitude grows with the event count. Retrieval consumers must normalize
// before comparing; ExportQuantized and ExportHalf do so.
package profile
