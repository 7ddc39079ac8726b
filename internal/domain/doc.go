// Package domain models natural-hazard events and the filter engine that
// selects the subset shown on the dashboard.
//
// # Event Sources
//
// Events come from three independent public feeds, each normalized into [Event]:
//
//	Seismic catalog:  USGS FDSN event query, GeoJSON features with geometry
//	                  [lon, lat, depth] and properties {mag, place, time, status, title}.
//	Volcanic activity: an RSS feed of weekly volcano reports. Items carry no
//	                  structured severity, so a fixed default classification is used.
//	Multi-hazard:     an RSS feed of alerts (floods, cyclones, fires, heat). The kind
//	                  is picked from the item text by [ClassifyHazard].
//
// A static embedded table of sample events stands in for all three in static
// mode and as the fallback when every live source fails.
//
// # Coordinates
//
// Coordinates are optional. A missing pair is represented by a nil [Event.Geo],
// never by a 0,0 sentinel, so an event in the Gulf of Guinea stays visible.
// Events without coordinates are never part of the visible subset.
//
// # Intensity Scale
//
// Each kind reports intensity differently. [NormalizedIntensity] maps them onto
// one comparable, non-negative number:
//
//	Earthquake: moment magnitude as reported, 0 when absent.
//	Volcano:    volcanic explosivity index (VEI) 0-8, 0 when absent.
//	Weather:    categorical label on a five-point scale:
//	              Low=1 | Moderate=3 | High=5 | Severe=7 | Extreme=9
//	            Missing or unknown labels score 5 (mid-scale).
//
// # Hazard Classification
//
// Multi-hazard items are classified by case-insensitive keyword search over
// title and description, in precedence order:
//
//	"flood"                                   -> flood
//	"cyclone", "storm", "hurricane", "typhoon" -> cyclone
//	"fire"                                    -> wildfire
//	"heat", "drought"                         -> heatwave
//	anything else                             -> unclassified
//
// # Filtering
//
// [Filter] is pure with respect to its inputs: the same events, state and
// reference time always give the same subset in input order. Recency windows
// are 1h, 24h, 7d (168h), 30d (720h) and all.
package domain
