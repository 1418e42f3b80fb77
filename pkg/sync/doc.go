/*
The sync package drives the metadata side of copying a Serato library onto a
removable volume. The music files themselves are copied by an external bulk
tool beforehand; this package rewrites the metadata so the copied files are
actually found.

One run reads the source database and crates, remaps every stored track path
from its absolute source location to a path relative to the destination
volume root, resolves smart crates into explicit track lists against the
database, and writes the result under the destination's own Serato
directory.

The database is authoritative: if it can't be loaded, the run aborts. An
individual crate that fails to process is skipped and reported; the run
continues. Rerunning on unchanged input produces byte-identical output.
*/
package sync
