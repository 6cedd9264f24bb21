/*
Package compiler lowers function graphs to ARM.

Process of compilation

	YAML text ->
		parse ->
	Generic graph (ir) ->
		back/arm instruction selection ->
	ARM graph with register requirements ->
		format ->
	Listing

The stat package reports data DAG shapes of the generic graph.
*/
package compiler
