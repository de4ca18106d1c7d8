// Package catalog encodes and decodes catalog cache snapshots: namespaces,
// tables and partitions.
//
// Each entity is an immutable protobuf message built from the primitives in
// package encoding:
//
//	Namespace
//	├── tables        MessageList of NamespaceTable{id, name}
//	├── table_names   HashBuckets over NamespaceTable.name
//	└── id, name, retention, limits, partition template
//
//	Table
//	├── columns         MessageList of TableColumn{id, name, type}
//	├── column_names    HashBuckets over TableColumn.name
//	├── partitions      MessageList of TablePartition{id, key}
//	├── partition_keys  HashBuckets over TablePartition.key
//	└── namespace_id, table_id, table_name, partition template
//
//	Partition
//	├── files       MessageList of PartitionFile (column_mask positional over column_ids)
//	├── column_ids, sort_key_ids
//	└── ids, key, optional new_file_at and skipped_compaction
//
// Entities refer to each other by integer id only.
//
// # Encoding
//
//	enc, err := catalog.NewNamespaceEncoder(catalog.NamespaceInfo{ID: 1, Name: "db"})
//	if err != nil {
//	    return err
//	}
//	_ = enc.AddTable(10, "metrics")
//	_ = enc.AddTable(11, "events")
//	data, err := enc.Finish()
//
// Encoders draw a random hash seed per snapshot unless WithHashSeed is given.
//
// # Decoding
//
//	ns, err := catalog.DecodeNamespace(data)
//	if err != nil {
//	    return err
//	}
//	idx, ok, err := ns.LookupTable("events")
//
// Decode functions validate lists and indexes before returning; child records
// are decoded lazily by the accessors, and errors in a child surface there.
// Decoded entities alias the input buffer, which must not be modified while
// they are in use.
package catalog
