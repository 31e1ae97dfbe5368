/*
Package sync mirrors a source directory into a replica directory.

Every pass starts from scratch: both trees are walked and every file is
hashed, so no state is carried between passes. Files are matched by their
relative path first. Replica files whose contents belong at another path are
moved there rather than copied again. Whatever is left is created or deleted.

Only the replica is ever modified.
*/
package sync
