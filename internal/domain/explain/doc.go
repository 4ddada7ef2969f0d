// Package explain annotates each executable line of practical source code with
// a human-readable explanation.
//
// Matching is an explicit ordered rule list evaluated by Dispatch:
//
//  1. DictionaryRule: the practical's own explanations, in authored order,
//     matched by two-way substring containment after stripping one trailing ";".
//  2. KeywordRule: generic fallbacks keyed on constructs such as tf(, feedback(,
//     bode( or a bare assignment, matched case-insensitively.
//  3. DefaultRule: a generic explanation.
//
// Blank lines and lines starting with "%" produce no entry.
package explain
