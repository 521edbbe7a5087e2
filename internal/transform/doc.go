// Package transform turns a downloaded file into documents.
//
// FileTransformer picks a reader by file name: plain text formats are read
// verbatim, HTML is reduced to its visible text, and archives are opened and
// each member transformed under the name "<archive>/<member>". Files of any
// other type become a single document when their content is non-empty UTF-8
// text and are dropped otherwise.
package transform
