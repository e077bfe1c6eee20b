/*
Package ini holds an INI configuration file in memory and gives typed access
to its values.

Syntax

A file is a list of sections, each a list of key/value properties:

	# comment
	[section]
	key = value ; trailing comment

A comment starts at the first ';' or '#' on a line and runs to its end, so
values cannot contain either character. Whitespace around section names,
keys and values is ignored. Keys must not contain whitespace. Every property
must belong to a section.

Types

The type of a value is detected from its text when it is stored:
true/false (also TRUE, True, FALSE, False) are booleans, optionally signed
digit runs are integers, digit runs with a single decimal point are floats,
an empty value is empty and everything else is a string. Reading a value as
a type other than its detected one fails with ErrTypeMismatch.
*/
package ini
