// Package schema reads the sqlite_schema table stored on page 1.
//
// Every table, index, view and trigger has one row in sqlite_schema:
//
//	CREATE TABLE sqlite_schema (
//	  type TEXT,      -- "table", "index", "view", "trigger"
//	  name TEXT,      -- object name
//	  tbl_name TEXT,  -- table the object belongs to
//	  rootpage INT,   -- root b-tree page, 0 for views and triggers
//	  sql TEXT        -- CREATE statement, NULL for automatic indexes
//	);
//
// The rows are decoded straight from the page bytes. The CREATE statements
// are returned verbatim and are not parsed.
package schema
