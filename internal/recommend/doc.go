// Reelgraph - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelgraph

/*
Package recommend implements the hybrid movie recommendation engine.

The engine combines two independent scoring signals:

  - Collaborative: movies liked by users whose rating vectors are
    cosine-similar to the target user's.
  - Content: movies from genres the target user has rated highly,
    ranked by global popularity within those genres.

Strategy selection depends on how much the service knows about the
user. Users with no ratings get a global popularity list, users with a
handful of ratings get content-only results, and established users get
both scorers run concurrently with their outputs merged by positional
rank fusion.

The package has no dependencies on other internal packages except
metrics. The Store interface allows integration with the database
layer without creating circular imports.
*/
package recommend
