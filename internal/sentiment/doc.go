// Package sentiment scores short texts such as news headlines.
//
// Score wraps the VADER analyzer from github.com/jonreiter/govader. The same
// text always yields the same compound score in [-1, 1], and Label maps that
// score onto positive, negative or neutral at a fixed threshold.
package sentiment
