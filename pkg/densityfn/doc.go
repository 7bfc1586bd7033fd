/*
Package densityfn reads and writes expression trees as terrain density function documents.

Constants are written as bare numbers and conditionals as range choices over
the input bound to their axis:

	{
	  "type": "minecraft:range_choice",
	  "input": "moredfs:x",
	  "min_inclusive": -2147483648,
	  "max_exclusive": 12,
	  "when_in_range": 0,
	  "when_out_of_range": { ... }
	}

A reference is the string id of another document. Every document root is an
object carrying a "v2df_provenance" entry describing the frames it came from.
*/
package densityfn
