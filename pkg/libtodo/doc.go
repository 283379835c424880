//
// libtodo holds the wire format and the sealing primitives of todokernel records.
//

// Build a user message
//
//	req := libtodo.ActionRequest{
//		ID:     1,
//		Action: libtodo.Create,
//		User:   "alice",
//		Record: libtodo.Record{
//			Title:       "Buy milk",
//			CreatedTime: 1700000000,
//			DueTime:     1700086400,
//		},
//	}
//
//	message := libtodo.UserMessage(req)
//	fmt.Println(hex.EncodeToString(message))
//
// Seal a record for its owner
//
//	sealed, err := libtodo.Seal(libtodo.EncodeRecord(record), record.Owner)
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Open it again
//
//	plaintext, err := libtodo.Open(sealed, "alice")
//	if err != nil {
//		// libtodo.ErrAuthenticationFailed when "alice" is not the owner.
//		log.Fatal(err)
//	}
//
//	record, err := libtodo.DecodeRecord(plaintext)
//	if err != nil {
//		log.Fatal(err)
//	}
package libtodo
