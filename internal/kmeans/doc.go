// Package kmeans implements deterministic k-means clustering for codebook
// training.
//
// Initialization uses k-means++ driven by a caller-supplied seeded source,
// and every tie (nearest centroid, empty-cluster reseeding) is broken by the
// lowest index, so identical inputs and seeds always yield identical
// centroids.
package kmeans
