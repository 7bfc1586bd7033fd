/*
Package expr is the expression model shared by the compiler, the assembler and the serializer.

An expression is a tree of three node kinds:

  - Constant: a fixed value of the terrain value domain.
  - Conditional: if coord[Axis] < Threshold then Then else Else.
  - Reference: evaluates to another node of the same arena.

Nodes live in an Arena and are addressed by NodeID. The arena hash-conses
nodes, so structurally equal subtrees are stored once and a tree is in fact a
DAG. Children are always allocated before their parents, which keeps the
graph acyclic without any extra bookkeeping.

An Arena is not safe for concurrent use. Each compile owns its arena and the
assembler imports finished trees into a shared one.
*/
package expr
