// Package domain models bee species conservation data.
//
// # Data Sources
//
// Species records are assembled from four public biodiversity APIs, each with
// its own taxonomy and status vocabulary, plus the European Red List of Bees
// Appendix 1 PDF (Nieto et al. 2014). Collectors query one source at a time
// and emit one JSON result document per source.
//
// # Bee Families
//
// All queries are scoped to the seven extant bee families (clade Anthophila):
//
//	Apidae          honey bees, bumble bees, carpenter bees
//	Megachilidae    leafcutter and mason bees
//	Halictidae      sweat bees
//	Andrenidae      mining bees
//	Colletidae      plasterer and masked bees
//	Melittidae      melittid bees
//	Stenotritidae   large Australian bees
//
// # Conservation Categories
//
// Categories follow the IUCN Red List abbreviations. Collectors target the
// extinct and threatened bands:
//
//	EX  Extinct
//	EW  Extinct in the Wild
//	CR  Critically Endangered
//	EN  Endangered
//	VU  Vulnerable
//	NT  Near Threatened
//
// LC (Least Concern) and DD (Data Deficient) appear in European Red List
// tallies but are outside the target set.
//
// # Status Normalization
//
// Each source reports status in its own vocabulary:
//
//	iNaturalist:  lowercase names ("endangered", "critically imperiled", …)
//	GBIF:         IUCN codes or enum names ("CR", "CRITICALLY_ENDANGERED", …)
//	IUCN v4:      IUCN codes as-is
//	NatureServe:  rounded ranks ("G1" global / "N1" national, …)
//
// A [StatusTable] maps one vocabulary to normalized categories. Lookup is
// whitespace-trimmed and case-insensitive. Unmapped tokens are reported as
// not found rather than guessed; callers decide whether to drop the record
// or retain it with the raw status for audit. See [INaturalistStatuses],
// [GBIFStatuses], [IUCNStatuses], [NatureServeRanks].
//
// # Result Documents
//
// A [ResultSet] is the serialized output of one collection run. Its
// total_species field always equals len(species); [NewResultSet] enforces
// this, so a zero-record run still yields a valid document.
package domain
