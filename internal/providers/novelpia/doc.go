// Package novelpia talks to novelpia.com: it fetches the paginated episode
// list and per-chapter viewer data, builds a de-duplicated chapter catalog
// and turns viewer payloads into plain chapter text with cover images
// saved on the side.
package novelpia
