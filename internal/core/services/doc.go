// Package services holds the pipeline: query optimisation, context
// assembly, retrieval, screenshot fetching and the streamed answer, plus
// the indexer, analysis, settings and re-index scheduler that feed it.
// Services depend only on the driven ports and degrade when one is nil.
package services
